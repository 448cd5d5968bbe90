package dataset

import (
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/composite"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/indexes"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/points"
	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/sentinel"
)

// Observation is one output row: the monthly composite of one point.
type Observation struct {
	PointID   string  `csv:"point_id"`
	Label     string  `csv:"label"`
	Longitude float64 `csv:"longitude"`
	Latitude  float64 `csv:"latitude"`
	Year      int     `csv:"year"`
	Month     int     `csv:"month"`
	Date      string  `csv:"date"`
	Scenes    int     `csv:"scenes"`

	B01 float64 `csv:"b01"`
	B02 float64 `csv:"b02"`
	B03 float64 `csv:"b03"`
	B04 float64 `csv:"b04"`
	B05 float64 `csv:"b05"`
	B06 float64 `csv:"b06"`
	B07 float64 `csv:"b07"`
	B08 float64 `csv:"b08"`
	B8A float64 `csv:"b8a"`
	B09 float64 `csv:"b09"`
	B11 float64 `csv:"b11"`
	B12 float64 `csv:"b12"`

	NDVI float64 `csv:"ndvi"`
	NDWI float64 `csv:"ndwi"`
	NDMI float64 `csv:"ndmi"`
	NBR  float64 `csv:"nbr"`
	NDRE float64 `csv:"ndre"`
	PSRI float64 `csv:"psri"`
}

func NewObservation(p points.Point, c composite.Composite, idx indexes.Values) Observation {
	o := Observation{
		PointID:   p.ID,
		Label:     p.Label,
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
		Year:      c.Month.Year,
		Month:     int(c.Month.Month),
		Date:      c.Month.String(),
		Scenes:    c.SceneCount,
		NDVI:      idx.NDVI,
		NDWI:      idx.NDWI,
		NDMI:      idx.NDMI,
		NBR:       idx.NBR,
		NDRE:      idx.NDRE,
		PSRI:      idx.PSRI,
	}
	bands := o.bands()
	for i, name := range sentinel.Bands {
		*bands[i] = c.Bands[name]
	}
	return o
}

// Index returns the named index column, see indexes.Names.
func (o Observation) Index(name string) (float64, error) {
	return indexes.Values{NDVI: o.NDVI, NDWI: o.NDWI, NDMI: o.NDMI, NBR: o.NBR, NDRE: o.NDRE, PSRI: o.PSRI}.Get(name)
}

// bands points at the band columns in sentinel.Bands order.
func (o *Observation) bands() []*float64 {
	return []*float64{&o.B01, &o.B02, &o.B03, &o.B04, &o.B05, &o.B06, &o.B07, &o.B08, &o.B8A, &o.B09, &o.B11, &o.B12}
}
