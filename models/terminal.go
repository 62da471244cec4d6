package models

import "github.com/thedevsaddam/govalidator"

type ConnectionToken struct {
	Secret string `json:"secret"`
}

type RegisterReaderOpts struct {
	RegistrationCode string `json:"registration_code"`
	LocationID       string `json:"location_id"`
	Label            string `json:"label"`
}

var RegisterReaderRules = govalidator.MapData{
	"registration_code": []string{"required"},
	"location_id":       []string{"required"},
}

type GetReadersOpts struct {
	Location string `schema:"location"`
	Limit    int64  `schema:"limit"`
}

type SimulatePaymentOpts struct {
	ReaderID string `json:"reader_id"`
}

var SimulatePaymentRules = govalidator.MapData{
	"reader_id": []string{"required"},
}

type CreateLocationOpts struct {
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

var CreateLocationRules = govalidator.MapData{
	"label":       []string{"required"},
	"line1":       []string{"required"},
	"city":        []string{"required"},
	"state":       []string{"required"},
	"country":     []string{"required"},
	"postal_code": []string{"required"},
}
