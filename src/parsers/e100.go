package parsers

import "github.com/username/fleetledger/src/models"

// E100 workbooks carry their data on a sheet named "Transactions" in one of
// two locales. Neither locale ships a net column; net is derived from gross
// via the country VAT table.

func e100PLDescriptor() cardDescriptor {
	return cardDescriptor{
		source:       models.SourceE100PL,
		sheetName:    "Transactions",
		requiredCols: []string{"Numer samochodu", "Kwota"},

		dateCol:        "Data",
		timeCol:        "Czas",
		idCols:         []string{"Numer samochodu", "Numer karty"},
		grossCol:       "Kwota",
		currencyCol:    "Waluta",
		quantityCol:    "Ilość",
		countryCol:     "Kraj",
		defaultCountry: "PL",

		classifyCols: []string{"Usługa", "Kategoria"},
		fallbackCol:  0,
		rules: []CategoryRule{
			{Field: 0, Keywords: []string{"TOLL", "OPŁATA DROGOWA"}, Category: models.CategoryToll},
			{Field: 0, Keywords: []string{"ON"}, Category: models.CategoryFuel, Label: "Diesel"},
			{Field: 1, Keywords: []string{"DIESEL"}, Category: models.CategoryFuel, Label: "Diesel"},
			{Field: 0, Keywords: []string{"ADBLUE"}, Category: models.CategoryFuel, Label: "AdBlue"},
			{Field: 1, Keywords: []string{"ADBLUE"}, Category: models.CategoryFuel, Label: "AdBlue"},
		},
	}
}

func e100ENDescriptor() cardDescriptor {
	return cardDescriptor{
		source:       models.SourceE100EN,
		sheetName:    "Transactions",
		requiredCols: []string{"Car registration number", "Sum"},

		dateCol:        "Date",
		timeCol:        "Time",
		idCols:         []string{"Car registration number", "Card number"},
		grossCol:       "Sum",
		currencyCol:    "Currency",
		quantityCol:    "Quantity",
		countryCol:     "Country",
		defaultCountry: "Nieznany",

		classifyCols: []string{"Service", "Category"},
		fallbackCol:  0,
		rules: []CategoryRule{
			{Field: 0, Keywords: []string{"TOLL"}, Category: models.CategoryToll},
			{Field: 0, Keywords: []string{"DIESEL"}, Category: models.CategoryFuel, Label: "Diesel"},
			{Field: 1, Keywords: []string{"DIESEL"}, Category: models.CategoryFuel, Label: "Diesel"},
			{Field: 0, Keywords: []string{"ADBLUE"}, Category: models.CategoryFuel, Label: "AdBlue"},
			{Field: 1, Keywords: []string{"ADBLUE"}, Category: models.CategoryFuel, Label: "AdBlue"},
		},
	}
}
