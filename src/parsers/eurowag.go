package parsers

import "github.com/username/fleetledger/src/models"

// eurowagDescriptor covers both Eurowag export generations. The older one
// lacks the card-holder column, so the signature requires the timestamp
// caption plus either the card holder or the article column.
func eurowagDescriptor() cardDescriptor {
	return cardDescriptor{
		source:          models.SourceEurowag,
		requiredCols:    []string{"Data i godzina"},
		optionalAnyCols: []string{"Posiadacz karty", "Artykuł"},

		dateCol:        "Data i godzina",
		idCols:         []string{"Tablica rejestracyjna", "Posiadacz karty", "Karta"},
		netCol:         "Kwota netto",
		grossCol:       "Kwota brutto",
		currencyCol:    "Waluta",
		quantityCol:    "Ilość",
		countryCol:     "Kraj",
		defaultCountry: "Nieznany",

		classifyCols: []string{"Usługa", "Artykuł"},
		fallbackCol:  1,
		rules: []CategoryRule{
			{Field: 0, Keywords: []string{"TOLL", "OPŁATA DROGOWA"}, Category: models.CategoryToll},
			{Field: 1, Keywords: []string{"DIESEL", "ON"}, Category: models.CategoryFuel, Label: "Diesel"},
			{Field: 1, Keywords: []string{"ADBLUE"}, Category: models.CategoryFuel, Label: "AdBlue"},
			{Field: 0, Keywords: []string{"OPENLOOP", "VISA"}, Category: models.CategoryOther, Label: "Płatność kartą"},
		},
	}
}
