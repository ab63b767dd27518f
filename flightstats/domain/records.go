package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingFlightID    = errors.New("flight status without flightId")
	ErrMissingAirportCode = errors.New("airport without fs/iata code")
	ErrMissingEquipment   = errors.New("equipment without iata code")
)

// DateTime é o par local/UTC usado pelo provedor em datas de partida e chegada.
type DateTime struct {
	DateLocal string `json:"dateLocal"`
	DateUTC   string `json:"dateUtc"`
}

// FlightRecord é um item de "flightStatuses".
//
// Fields mantém o registro inteiro achatado, na ordem da resposta.
type FlightRecord struct {
	FlightID               string
	CarrierFsCode          string
	FlightNumber           string
	DepartureAirportFsCode string
	ArrivalAirportFsCode   string
	Status                 string
	DepartureDate          DateTime
	ArrivalDate            DateTime

	Fields []Field
}

type flightJSON struct {
	FlightID               json.Number `json:"flightId"`
	CarrierFsCode          string      `json:"carrierFsCode"`
	FlightNumber           string      `json:"flightNumber"`
	DepartureAirportFsCode string      `json:"departureAirportFsCode"`
	ArrivalAirportFsCode   string      `json:"arrivalAirportFsCode"`
	Status                 string      `json:"status"`
	DepartureDate          DateTime    `json:"departureDate"`
	ArrivalDate            DateTime    `json:"arrivalDate"`
}

func (r *FlightRecord) UnmarshalJSON(data []byte) error {
	var v flightJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flight status: %w", err)
	}
	if v.FlightID == "" {
		return ErrMissingFlightID
	}
	fields, err := Flatten(data)
	if err != nil {
		return fmt.Errorf("flight %s: %w", v.FlightID, err)
	}
	*r = FlightRecord{
		FlightID:               v.FlightID.String(),
		CarrierFsCode:          v.CarrierFsCode,
		FlightNumber:           v.FlightNumber,
		DepartureAirportFsCode: v.DepartureAirportFsCode,
		ArrivalAirportFsCode:   v.ArrivalAirportFsCode,
		Status:                 v.Status,
		DepartureDate:          v.DepartureDate,
		ArrivalDate:            v.ArrivalDate,
		Fields:                 fields,
	}
	return nil
}

func (r FlightRecord) Key() string { return r.FlightID }

// AirportRecord é um item de "appendix.airports".
type AirportRecord struct {
	Fs          string
	Iata        string
	Icao        string
	Name        string
	City        string
	CountryCode string
	CountryName string
	RegionName  string
	Latitude    json.Number
	Longitude   json.Number

	Fields []Field
}

type airportJSON struct {
	Fs          string      `json:"fs"`
	Iata        string      `json:"iata"`
	Icao        string      `json:"icao"`
	Name        string      `json:"name"`
	City        string      `json:"city"`
	CountryCode string      `json:"countryCode"`
	CountryName string      `json:"countryName"`
	RegionName  string      `json:"regionName"`
	Latitude    json.Number `json:"latitude"`
	Longitude   json.Number `json:"longitude"`
}

func (r *AirportRecord) UnmarshalJSON(data []byte) error {
	var v airportJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("airport: %w", err)
	}
	if v.Fs == "" && v.Iata == "" {
		return ErrMissingAirportCode
	}
	fields, err := Flatten(data)
	if err != nil {
		return fmt.Errorf("airport %s: %w", v.Fs, err)
	}
	*r = AirportRecord{
		Fs:          v.Fs,
		Iata:        v.Iata,
		Icao:        v.Icao,
		Name:        v.Name,
		City:        v.City,
		CountryCode: v.CountryCode,
		CountryName: v.CountryName,
		RegionName:  v.RegionName,
		Latitude:    v.Latitude,
		Longitude:   v.Longitude,
		Fields:      fields,
	}
	return nil
}

// Key é o código usado pelos voos (departureAirportFsCode/arrivalAirportFsCode).
func (r AirportRecord) Key() string {
	if r.Fs != "" {
		return r.Fs
	}
	return r.Iata
}

// LatLon devolve "lat,lon" com o texto numérico original da resposta.
func (r AirportRecord) LatLon() string {
	return r.Latitude.String() + "," + r.Longitude.String()
}

// AirplaneRecord é um item de "appendix.equipments".
type AirplaneRecord struct {
	Iata      string
	Name      string
	TurboProp bool
	Jet       bool
	Widebody  bool
	Regional  bool

	Fields []Field
}

type airplaneJSON struct {
	Iata      string `json:"iata"`
	Name      string `json:"name"`
	TurboProp bool   `json:"turboProp"`
	Jet       bool   `json:"jet"`
	Widebody  bool   `json:"widebody"`
	Regional  bool   `json:"regional"`
}

func (r *AirplaneRecord) UnmarshalJSON(data []byte) error {
	var v airplaneJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("equipment: %w", err)
	}
	if v.Iata == "" {
		return ErrMissingEquipment
	}
	fields, err := Flatten(data)
	if err != nil {
		return fmt.Errorf("equipment %s: %w", v.Iata, err)
	}
	*r = AirplaneRecord{
		Iata:      v.Iata,
		Name:      v.Name,
		TurboProp: v.TurboProp,
		Jet:       v.Jet,
		Widebody:  v.Widebody,
		Regional:  v.Regional,
		Fields:    fields,
	}
	return nil
}

func (r AirplaneRecord) Key() string { return r.Iata }

// StatusResponse é o corpo de sucesso do endpoint de status por aeroporto.
// Arrays ausentes ou null decodificam como vazios.
type StatusResponse struct {
	FlightStatuses []FlightRecord `json:"flightStatuses"`
	Appendix       *Appendix      `json:"appendix"`
}

type Appendix struct {
	Airports   []AirportRecord  `json:"airports"`
	Equipments []AirplaneRecord `json:"equipments"`
}
