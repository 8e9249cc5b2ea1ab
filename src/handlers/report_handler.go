package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/username/fleetledger/src/config"
	"github.com/username/fleetledger/src/logger"
	"github.com/username/fleetledger/src/services"
	"github.com/username/fleetledger/src/utils"
)

const reportDateLayout = "2006-01-02"

type ReportHandler struct {
	reportService services.ReportService
	rateService   services.RateService
	importService services.ImportService
	domain        *config.DomainConfig
}

func NewReportHandler(reportService services.ReportService, rateService services.RateService, importService services.ImportService, domain *config.DomainConfig) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		rateService:   rateService,
		importService: importService,
		domain:        domain,
	}
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(reportDateLayout, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' date, expected YYYY-MM-DD")
	}
	to, err := time.Parse(reportDateLayout, r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' date, expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("'to' date precedes 'from' date")
	}
	return from, to, nil
}

func (h *ReportHandler) sendReportError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, services.ErrNoData):
		utils.SendJSONError(w, "no transactions found for the requested window", http.StatusNotFound)
	case errors.Is(err, services.ErrBaseRateUnavailable):
		logger.L.Error("EUR base rate unavailable", "context", context, "error", err)
		utils.SendJSONError(w, "exchange rate provider unavailable", http.StatusBadGateway)
	default:
		logger.L.Error("Internal error building report", "context", context, "error", err)
		utils.SendJSONError(w, "An internal error occurred while building the report.", http.StatusInternalServerError)
	}
}

// HandleExpenseReport serves the fuel/toll/other expense breakdown for a
// company over a date window. Responses carry an ETag so an unchanged
// report short-circuits with 304.
func (h *ReportHandler) HandleExpenseReport(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if !h.domain.KnownCompany(company) {
		utils.SendJSONError(w, "unknown company", http.StatusBadRequest)
		return
	}
	from, to, err := parseWindow(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reportService.ExpenseReport(company, from, to)
	if err != nil {
		h.sendReportError(w, err, "expense report")
		return
	}

	etag, err := utils.GenerateETag(report)
	if err != nil {
		logger.L.Error("Failed to generate ETag for expense report", "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleProfitabilityReport accepts a ledger statement upload and returns
// per-vehicle profitability together with the re-invoicing summary.
func (h *ReportHandler) HandleProfitabilityReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}
	company := r.FormValue("company")
	if !h.domain.KnownCompany(company) {
		utils.SendJSONError(w, "unknown company", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(reportDateLayout, r.FormValue("from"))
	if err != nil {
		utils.SendJSONError(w, "invalid 'from' date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(reportDateLayout, r.FormValue("to"))
	if err != nil {
		utils.SendJSONError(w, "invalid 'to' date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("statement")
	if err != nil {
		utils.SendJSONError(w, "statement file is required. Ensure the 'statement' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		utils.SendJSONError(w, "failed to read statement file", http.StatusBadRequest)
		return
	}

	statement := services.UploadedFile{Name: header.Filename, Data: data}
	report, err := h.reportService.ProfitabilityReport(statement, company, from, to)
	if err != nil {
		h.sendReportError(w, err, "profitability report")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *ReportHandler) HandleReinvoiceReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reportService.ReinvoiceReport(from, to)
	if err != nil {
		h.sendReportError(w, err, "reinvoice report")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// HandleDateRange reports the earliest and latest stored transaction
// timestamps so clients can preset their report windows.
func (h *ReportHandler) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	minDate, maxDate, err := h.importService.MinMaxDates()
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			utils.SendJSONError(w, "no transactions stored yet", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to query transaction date range", "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"min_date": minDate.Format(reportDateLayout),
		"max_date": maxDate.Format(reportDateLayout),
	})
}

// HandleRates returns the current EUR conversion table for the requested
// currencies. Currencies the provider cannot quote come back in the
// degraded list.
func (h *ReportHandler) HandleRates(w http.ResponseWriter, r *http.Request) {
	var currencies []string
	if raw := r.URL.Query().Get("currencies"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(strings.ToUpper(c)); c != "" {
				currencies = append(currencies, c)
			}
		}
	}

	rates, err := h.rateService.RatesFor(currencies)
	if err != nil {
		if errors.Is(err, services.ErrBaseRateUnavailable) {
			utils.SendJSONError(w, "exchange rate provider unavailable", http.StatusBadGateway)
			return
		}
		logger.L.Error("Failed to fetch exchange rates", "error", err)
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rates)
}
