package reference

import "strings"

// Column names of the census exports
const (
	colDepartmentCode    = "codigo_departamento"
	colDepartmentName    = "nombre_departamento"
	colDistrictCode      = "codigo_distrito"
	colDistrictName      = "nombre_distrito"
	colLocalityCode      = "codigo_barrio_localidad"
	colLocalityName      = "nombre_barrio_localidad"
	colEstablishmentCode = "codigo_establecimiento"
	colYear              = "anio"
	colZoneCode          = "codigo_zona"
	colZoneName          = "nombre_zona"
	colAddress           = "direccion"
	colLatitude          = "latitud"
	colLongitude         = "longitud"
	colInstitutionCode   = "codigo_institucion"
	colInstitutionName   = "nombre_institucion"
	colInstitutionType   = "sector_o_tipo_gestion"
	colPhoneNumber       = "nro_telefono"
	colWebsite           = "paginaweb"
	colEmail             = "email"
)

// unknownInstitutionType is used when the file has no column for the type.
const unknownInstitutionType = "DESCONOCIDO"

type record struct {
	line   int
	fields []string
	header map[string]int
}

// get returns the trimmed value of a column, empty if the file or the
// line does not have it.
func (r record) get(column string) string {
	value, _ := r.lookup(column)
	return value
}

// lookup also reports if the file has the column.
func (r record) lookup(column string) (string, bool) {
	idx, ok := r.header[column]
	if !ok {
		return "", false
	}

	if idx >= len(r.fields) {
		return "", true
	}
	return strings.TrimSpace(r.fields[idx]), true
}
