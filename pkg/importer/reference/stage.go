package reference

import (
	"errors"
	"strconv"
	"strings"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/helpers"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type caches struct {
	departments    map[string]*models.Department
	districts      map[string]*models.District
	localities     map[string]*models.Locality
	establishments map[string]*models.Establishment
}

func newCaches() caches {
	return caches{
		departments:    make(map[string]*models.Department),
		districts:      make(map[string]*models.District),
		localities:     make(map[string]*models.Locality),
		establishments: make(map[string]*models.Establishment),
	}
}

func (c *caches) merge(other caches) {
	mergeInto(c.departments, other.departments)
	mergeInto(c.districts, other.districts)
	mergeInto(c.localities, other.localities)
	mergeInto(c.establishments, other.establishments)
}

func mergeInto[T any](dst, src map[string]*T) {
	for key, value := range src {
		dst[key] = value
	}
}

func cached[T any](committed, pending map[string]*T, key string) (*T, bool) {
	if value, ok := pending[key]; ok {
		return value, true
	}
	value, ok := committed[key]
	return value, ok
}

// stage imports the entities of a single record. Entities it creates or
// updates are cached in pending until the record has been committed.
type stage struct {
	tx        *gorm.DB
	committed *caches
	pending   *caches
}

// department returns nil when the record has no department code.
func (s stage) department(rec record) (*models.Department, error) {
	code := models.PadDepartmentCode(rec.get(colDepartmentCode))
	if code == "" {
		return nil, nil
	}

	if d, ok := cached(s.committed.departments, s.pending.departments, code); ok {
		return d, nil
	}

	var d models.Department
	err := s.tx.Where("code = ?", code).
		Assign(map[string]any{"code": code, "name": rec.get(colDepartmentName)}).
		FirstOrCreate(&d).Error
	if err != nil {
		return nil, err
	}

	s.pending.departments[code] = &d
	return &d, nil
}

// district returns nil when the record has no district code.
func (s stage) district(department *models.Department, rec record) (*models.District, error) {
	code := rec.get(colDistrictCode)
	if code == "" {
		return nil, nil
	}

	key := department.Code + "-" + code
	if d, ok := cached(s.committed.districts, s.pending.districts, key); ok {
		return d, nil
	}

	var d models.District
	err := s.tx.Where("department_id = ? AND code = ?", department.ID, code).
		Assign(map[string]any{"department_id": department.ID, "code": code, "name": rec.get(colDistrictName)}).
		FirstOrCreate(&d).Error
	if err != nil {
		return nil, err
	}

	s.pending.districts[key] = &d
	return &d, nil
}

// locality returns nil when the record has no locality code.
func (s stage) locality(department *models.Department, district *models.District, rec record) (*models.Locality, error) {
	code := rec.get(colLocalityCode)
	if code == "" {
		return nil, nil
	}

	key := department.Code + "-" + district.Code + "-" + code
	if l, ok := cached(s.committed.localities, s.pending.localities, key); ok {
		return l, nil
	}

	var l models.Locality
	err := s.tx.Where("district_id = ? AND code = ?", district.ID, code).
		Assign(map[string]any{"district_id": district.ID, "code": code, "name": rec.get(colLocalityName)}).
		FirstOrCreate(&l).Error
	if err != nil {
		return nil, err
	}

	s.pending.localities[key] = &l
	return &l, nil
}

// establishment returns nil when the record has no establishment code.
func (s stage) establishment(district *models.District, locality *models.Locality, rec record) (*models.Establishment, error) {
	code := rec.get(colEstablishmentCode)
	if code == "" {
		return nil, nil
	}

	if e, ok := cached(s.committed.establishments, s.pending.establishments, code); ok {
		return e, nil
	}

	var lastDataCapture *int64
	if year, ok := helpers.Int(rec.get(colYear)); ok {
		lastDataCapture = &year
	}

	// A map also writes blank values, the census clears fields that way
	attrs := map[string]any{
		"code":              code,
		"district_id":       district.ID,
		"locality_id":       &locality.ID,
		"zone_code":         rec.get(colZoneCode),
		"zone_name":         rec.get(colZoneName),
		"address":           rec.get(colAddress),
		"latitude":          helpers.Coordinate(rec.get(colLatitude)),
		"longitude":         helpers.Coordinate(rec.get(colLongitude)),
		"last_data_capture": lastDataCapture,
	}

	var e models.Establishment
	err := s.tx.Where("code = ?", code).Assign(attrs).FirstOrCreate(&e).Error
	if err != nil {
		return nil, err
	}

	s.pending.establishments[code] = &e
	return &e, nil
}

// establishmentChain imports the record as an establishment together with
// its department, district and locality.
func (s stage) establishmentChain(rec record) (*models.Establishment, error) {
	department, err := s.department(rec)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, missing("department code", colDepartmentCode, rec.line)
	}

	district, err := s.district(department, rec)
	if err != nil {
		return nil, err
	}
	if district == nil {
		return nil, missing("district code", colDistrictCode, rec.line)
	}

	locality, err := s.locality(department, district, rec)
	if err != nil {
		return nil, err
	}
	if locality == nil {
		return nil, missing("locality code", colLocalityCode, rec.line)
	}

	establishment, err := s.establishment(district, locality, rec)
	if err != nil {
		return nil, err
	}
	if establishment == nil {
		return nil, missing("establishment code", colEstablishmentCode, rec.line)
	}

	return establishment, nil
}

// institutionRow imports the record as an institution. An establishment
// that is neither cached nor stored is imported from the same record.
func (s stage) institutionRow(rec record) (*models.Institution, error) {
	code := rec.get(colEstablishmentCode)
	if code == "" {
		return nil, missing("establishment code", colEstablishmentCode, rec.line)
	}

	establishment, ok := cached(s.committed.establishments, s.pending.establishments, code)
	if !ok {
		var e models.Establishment
		err := s.tx.Where("code = ?", code).First(&e).Error
		switch {
		case err == nil:
			establishment = &e
			s.pending.establishments[code] = establishment
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Debug().Int("line", rec.line).Str("establishment", code).Msg("establishment not stored yet, importing it")

			establishment, err = s.establishmentChain(rec)
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	return s.institution(establishment, rec)
}

func (s stage) institution(establishment *models.Establishment, rec record) (*models.Institution, error) {
	code, err := institutionCode(rec)
	if err != nil {
		return nil, err
	}

	name := rec.get(colInstitutionName)
	institutionType, ok := rec.lookup(colInstitutionType)
	if !ok {
		institutionType = unknownInstitutionType
	}

	var i models.Institution
	err = s.tx.Where("establishment_id = ? AND code = ? AND name = ?", establishment.ID, code, name).
		Assign(map[string]any{
			"establishment_id": establishment.ID,
			"code":             code,
			"name":             name,
			"institution_type": institutionType,
			"phone_number":     rec.get(colPhoneNumber),
			"website":          rec.get(colWebsite),
			"email":            rec.get(colEmail),
		}).
		FirstOrCreate(&i).Error
	if err != nil {
		return nil, err
	}

	return &i, nil
}

// institutionCode normalizes codes like "1.203" or "-1203" to "1203".
func institutionCode(rec record) (string, error) {
	raw := rec.get(colInstitutionCode)
	cleaned := strings.NewReplacer(".", "", " ", "").Replace(raw)
	if cleaned == "" {
		return "", missing("institution code", colInstitutionCode, rec.line)
	}

	code, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return "", importer.DataQualityError(rec.line, "invalid institution code %q (%s)", raw, colInstitutionCode)
	}

	if code < 0 {
		code = -code
	}
	return strconv.FormatInt(code, 10), nil
}

func missing(what, column string, line int) error {
	return importer.DataQualityError(line, "missing %s (%s)", what, column)
}
