package output

import (
	"fmt"
	"strconv"

	"github.com/agentstation/homewire/pkg/records"
)

// FlatTable lays a flat out as a property/value table with the house
// flattened into it.
type FlatTable records.Flat

// TableData implements Tabular.
func (f FlatTable) TableData() Data {
	balcony := "-"
	if f.Balcony != nil {
		balcony = strconv.FormatBool(*f.Balcony)
	}
	rows := [][]string{
		{"ID", strconv.FormatInt(f.ID, 10)},
		{"Name", f.Name},
		{"Coordinates", fmt.Sprintf("(%g, %g)", f.Coordinates.X, f.Coordinates.Y)},
		{"Created", orDash(f.CreationDate)},
		{"Area", formatFloat(f.Area)},
		{"Price", formatFloat(f.Price)},
		{"Balcony", balcony},
		{"Time To Metro", formatFloat(f.TimeToMetroOnFoot)},
		{"Rooms", strconv.Itoa(f.NumberOfRooms)},
		{"Living Space", formatFloat(f.LivingSpace)},
		{"Furnish", string(f.Furnish)},
		{"View", string(f.View)},
		{"Floor", strconv.Itoa(f.Floor)},
	}
	if f.House != nil {
		rows = append(rows, []string{"House", fmt.Sprintf("%s (#%d, %d)", f.House.Name, f.House.ID, f.House.Year)})
	} else {
		rows = append(rows, []string{"House", "-"})
	}
	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// HouseTable lays a house out as a property/value table.
type HouseTable records.House

// TableData implements Tabular.
func (h HouseTable) TableData() Data {
	return Data{
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"ID", strconv.FormatInt(h.ID, 10)},
			{"Name", h.Name},
			{"Year", strconv.Itoa(h.Year)},
			{"Flats On Floor", strconv.Itoa(h.NumberOfFlatsOnFloor)},
		},
		ColumnAlignment: []Align{AlignLeft, AlignLeft},
	}
}

// Table returns the table layout for a record, or the record itself when
// it has none.
func Table(record any) any {
	switch r := record.(type) {
	case records.Flat:
		return FlatTable(r)
	case *records.Flat:
		return FlatTable(*r)
	case records.House:
		return HouseTable(r)
	case *records.House:
		return HouseTable(*r)
	default:
		return record
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
