package application

import "flightstats-client/flightstats/domain"

const (
	TableFlights    = "flights"
	TableDepartures = "departures"
	TableArrivals   = "arrivals"
	TableEquipment  = "equipment"

	// prefixo das colunas do aeroporto nas visões de join
	airportColumnPrefix = "airport."
)

// Colunas derivadas adicionadas a cada voo, na ordem em que aparecem.
var (
	DepartureColumns = []string{"depLatLon", "depAirportName", "depCity", "depCountryCode", "depCountryName", "depRegionName"}
	ArrivalColumns   = []string{"arrLatLon", "arrAirportName", "arrCity", "arrCountryCode", "arrCountryName", "arrRegionName"}
)

// Tables é a saída de um RunSet.
//
// Flights tem uma linha por voo (left join: sem aeroporto correspondente as
// colunas derivadas ficam vazias). Departures e Arrivals são inner joins do
// voo com o aeroporto de partida/chegada.
type Tables struct {
	Flights    domain.Table
	Departures domain.Table
	Arrivals   domain.Table
	Equipment  domain.Table
}

// Dedupe mantém um registro por chave: a posição é a da primeira ocorrência
// e o valor é o da última.
func Dedupe[T any](in []T, key func(T) string) []T {
	idx := make(map[string]int, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		k := key(v)
		if i, ok := idx[k]; ok {
			out[i] = v
			continue
		}
		idx[k] = len(out)
		out = append(out, v)
	}
	return out
}

// Transform deduplica, achata e faz os joins. ok=false quando alguma das três
// coleções está vazia: nada deve ser escrito para o RunSet.
func Transform(b Batch) (Tables, bool) {
	if len(b.Flights) == 0 || len(b.Airports) == 0 || len(b.Airplanes) == 0 {
		return Tables{}, false
	}

	flights := Dedupe(b.Flights, domain.FlightRecord.Key)
	airports := Dedupe(b.Airports, domain.AirportRecord.Key)
	airplanes := Dedupe(b.Airplanes, domain.AirplaneRecord.Key)

	byCode := make(map[string]domain.AirportRecord, len(airports))
	for _, a := range airports {
		byCode[a.Key()] = a
	}

	flightCols := newColumnSet()
	for _, f := range flights {
		flightCols.addFields(f.Fields)
	}
	airportCols := newColumnSet()
	for _, a := range airports {
		airportCols.addFields(a.Fields)
	}

	out := Tables{
		Flights:    domain.Table{Name: TableFlights, Columns: concat(flightCols.names, DepartureColumns, ArrivalColumns)},
		Departures: domain.Table{Name: TableDepartures, Columns: concat(flightCols.names, airportCols.prefixed(airportColumnPrefix))},
		Arrivals:   domain.Table{Name: TableArrivals, Columns: concat(flightCols.names, airportCols.prefixed(airportColumnPrefix))},
	}

	for _, f := range flights {
		base := flightCols.row(f.Fields)

		dep, depOK := byCode[f.DepartureAirportFsCode]
		arr, arrOK := byCode[f.ArrivalAirportFsCode]

		out.Flights.Rows = append(out.Flights.Rows, concat(base, enrichment(dep, depOK), enrichment(arr, arrOK)))
		if depOK {
			out.Departures.Rows = append(out.Departures.Rows, concat(base, airportCols.row(dep.Fields)))
		}
		if arrOK {
			out.Arrivals.Rows = append(out.Arrivals.Rows, concat(base, airportCols.row(arr.Fields)))
		}
	}

	equipCols := newColumnSet()
	for _, a := range airplanes {
		equipCols.addFields(a.Fields)
	}
	out.Equipment = domain.Table{Name: TableEquipment, Columns: equipCols.names}
	for _, a := range airplanes {
		out.Equipment.Rows = append(out.Equipment.Rows, equipCols.row(a.Fields))
	}

	return out, true
}

func enrichment(a domain.AirportRecord, ok bool) []string {
	if !ok {
		return make([]string, len(DepartureColumns))
	}
	return []string{a.LatLon(), a.Name, a.City, a.CountryCode, a.CountryName, a.RegionName}
}

// columnSet é a união das colunas achatadas, na ordem em que aparecem.
type columnSet struct {
	names []string
	index map[string]int
}

func newColumnSet() *columnSet {
	return &columnSet{index: make(map[string]int)}
}

func (c *columnSet) addFields(fields []domain.Field) {
	for _, f := range fields {
		if _, ok := c.index[f.Key]; ok {
			continue
		}
		c.index[f.Key] = len(c.names)
		c.names = append(c.names, f.Key)
	}
}

func (c *columnSet) row(fields []domain.Field) []string {
	row := make([]string, len(c.names))
	for _, f := range fields {
		if i, ok := c.index[f.Key]; ok {
			row[i] = f.Text()
		}
	}
	return row
}

func (c *columnSet) prefixed(prefix string) []string {
	out := make([]string, len(c.names))
	for i, n := range c.names {
		out[i] = prefix + n
	}
	return out
}

func concat(parts ...[]string) []string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]string, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
