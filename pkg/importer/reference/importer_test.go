package reference_test

import (
	"strings"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/reference"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/shopspring/decimal"
)

const establishmentsHeader = "anio,codigo_establecimiento,codigo_departamento,nombre_departamento,codigo_distrito,nombre_distrito,codigo_zona,nombre_zona,codigo_barrio_localidad,nombre_barrio_localidad,direccion,latitud,longitud"

const institutionsHeader = "codigo_establecimiento,codigo_institucion,nombre_institucion,sector_o_tipo_gestion,nro_telefono,paginaweb,email"

func (suite *TestSuiteStandard) TestParseMode() {
	tests := []struct {
		input string
		mode  reference.Mode
		err   bool
	}{
		{"establishments", reference.ModeEstablishments, false},
		{" Institutions ", reference.ModeInstitutions, false},
		{"schools", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		suite.Run(tt.input, func() {
			mode, err := reference.ParseMode(tt.input)
			if tt.err {
				suite.Assert().NotNil(err)
				return
			}
			suite.Assert().Nil(err)
			suite.Assert().Equal(tt.mode, mode)
		})
	}
}

func (suite *TestSuiteStandard) TestEstablishments() {
	skipped := suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2022,1001,1,CONCEPCIÓN,01,CONCEPCIÓN,1,URBANA,010,SAN ANTONIO,"Calle 1 c/ Calle 2","23° 24' 27"" S","57° 26' 6"" W"`,
		`2022,1002,1,CONCEPCIÓN,01,CONCEPCIÓN,2,RURAL,011,CENTRO,,,`,
	)
	suite.Assert().Empty(skipped)

	suite.Assert().Equal(int64(1), suite.count(&models.Department{}))
	suite.Assert().Equal(int64(1), suite.count(&models.District{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Locality{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Establishment{}))

	var department models.Department
	suite.Require().Nil(suite.db.First(&department).Error)
	suite.Assert().Equal("01", department.Code)
	suite.Assert().Equal("CONCEPCIÓN", department.Name)

	var establishment models.Establishment
	suite.Require().Nil(suite.db.First(&establishment, "code = ?", "1001").Error)
	suite.Assert().Equal("URBANA", establishment.ZoneName)
	suite.Assert().Equal("Calle 1 c/ Calle 2", establishment.Address)
	suite.Require().NotNil(establishment.LastDataCapture)
	suite.Assert().Equal(int64(2022), *establishment.LastDataCapture)
	suite.Require().True(establishment.Latitude.Valid)
	suite.Assert().True(decimal.RequireFromString("-23.4075").Equal(establishment.Latitude.Decimal), establishment.Latitude.Decimal.String())
	suite.Require().True(establishment.Longitude.Valid)
	suite.Assert().True(decimal.RequireFromString("-57.435").Equal(establishment.Longitude.Decimal), establishment.Longitude.Decimal.String())

	var rural models.Establishment
	suite.Require().Nil(suite.db.First(&rural, "code = ?", "1002").Error)
	suite.Assert().False(rural.Latitude.Valid)
	suite.Assert().False(rural.Longitude.Valid)
}

func (suite *TestSuiteStandard) TestEstablishmentsUpdate() {
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2021,1001,1,CONCEPCION,01,CONCEPCION,1,URBANA,010,SAN ANTONIO,Calle 1,,`,
	))

	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2022,1001,1,CONCEPCIÓN,01,CONCEPCIÓN,1,URBANA,010,SAN ANTONIO,Calle 3,,`,
	))

	suite.Assert().Equal(int64(1), suite.count(&models.Department{}))
	suite.Assert().Equal(int64(1), suite.count(&models.Establishment{}))

	var department models.Department
	suite.Require().Nil(suite.db.First(&department).Error)
	suite.Assert().Equal("CONCEPCIÓN", department.Name)

	var establishment models.Establishment
	suite.Require().Nil(suite.db.First(&establishment).Error)
	suite.Assert().Equal("Calle 3", establishment.Address)
	suite.Assert().Equal(int64(2022), *establishment.LastDataCapture)
}

// Values the census has blanked are cleared on the next import.
func (suite *TestSuiteStandard) TestEstablishmentsClearedValues() {
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2021,1001,1,CONCEPCION,01,CONCEPCION,1,URBANA,010,SAN ANTONIO,Calle 1,"23° 24' 27"" S","57° 26' 6"" W"`,
	))

	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`,1001,1,CONCEPCION,01,CONCEPCION,,,010,SAN ANTONIO,,,`,
	))

	var establishment models.Establishment
	suite.Require().Nil(suite.db.First(&establishment, "code = ?", "1001").Error)
	suite.Assert().Equal("", establishment.Address)
	suite.Assert().Equal("", establishment.ZoneCode)
	suite.Assert().Equal("", establishment.ZoneName)
	suite.Assert().False(establishment.Latitude.Valid)
	suite.Assert().False(establishment.Longitude.Valid)
	suite.Assert().Nil(establishment.LastDataCapture)
	suite.Assert().Equal(int64(1), suite.count(&models.Establishment{}))
}

func (suite *TestSuiteStandard) TestEstablishmentsSkipped() {
	skipped := suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2022,1001,,,01,CONCEPCIÓN,1,URBANA,010,SAN ANTONIO,,,`,
		`2022,1002,1,CONCEPCIÓN,,,1,URBANA,010,SAN ANTONIO,,,`,
		`2022,1003,1,CONCEPCIÓN,01,CONCEPCIÓN,1,URBANA,,,,,`,
		`2022,,1,CONCEPCIÓN,01,CONCEPCIÓN,1,URBANA,010,SAN ANTONIO,,,`,
		`2022,1005,2,SAN PEDRO,01,SAN PEDRO,1,URBANA,010,CENTRO,,,`,
	)

	suite.Assert().Equal([]importer.SkippedRow{
		{Row: 2, Reason: "missing department code (codigo_departamento)"},
		{Row: 3, Reason: "missing district code (codigo_distrito)"},
		{Row: 4, Reason: "missing locality code (codigo_barrio_localidad)"},
		{Row: 5, Reason: "missing establishment code (codigo_establecimiento)"},
	}, skipped)

	// Skipped lines are rolled back completely
	suite.Assert().Equal(int64(1), suite.count(&models.Department{}))
	suite.Assert().Equal(int64(1), suite.count(&models.District{}))
	suite.Assert().Equal(int64(1), suite.count(&models.Locality{}))
	suite.Assert().Equal(int64(1), suite.count(&models.Establishment{}))
}

func (suite *TestSuiteStandard) TestInstitutions() {
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2022,1001,11,CENTRAL,01,AREGUÁ,1,URBANA,010,CENTRO,,,`,
	))

	skipped := suite.importCSV(reference.ModeInstitutions,
		institutionsHeader,
		`1001,1.203,ESCUELA BÁSICA N° 1,OFICIAL,0291-432100,,escuela@example.com`,
		`1001,-1204,COLEGIO NACIONAL,OFICIAL,,,`,
		`1001,,SIN CÓDIGO,OFICIAL,,,`,
		`1001,12a,CÓDIGO INVÁLIDO,OFICIAL,,,`,
		`,1205,SIN LOCAL,OFICIAL,,,`,
	)

	suite.Assert().Equal([]importer.SkippedRow{
		{Row: 4, Reason: "missing institution code (codigo_institucion)"},
		{Row: 5, Reason: `invalid institution code "12a" (codigo_institucion)`},
		{Row: 6, Reason: "missing establishment code (codigo_establecimiento)"},
	}, skipped)

	var institutions []models.Institution
	suite.Require().Nil(suite.db.Order("code").Find(&institutions).Error)
	suite.Require().Len(institutions, 2)
	suite.Assert().Equal("1203", institutions[0].Code)
	suite.Assert().Equal("ESCUELA BÁSICA N° 1", institutions[0].Name)
	suite.Assert().Equal("OFICIAL", institutions[0].InstitutionType)
	suite.Assert().Equal("escuela@example.com", institutions[0].Email)
	suite.Assert().Equal("1204", institutions[1].Code)
}

func (suite *TestSuiteStandard) TestInstitutionsUpdate() {
	lines := []string{
		`2022,1001,11,CENTRAL,01,AREGUÁ,1,URBANA,010,CENTRO,,,`,
	}
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments, append([]string{establishmentsHeader}, lines...)...))

	suite.Assert().Empty(suite.importCSV(reference.ModeInstitutions,
		institutionsHeader,
		`1001,1203,ESCUELA BÁSICA N° 1,OFICIAL,,,`,
	))
	suite.Assert().Empty(suite.importCSV(reference.ModeInstitutions,
		institutionsHeader,
		`1001,1203,ESCUELA BÁSICA N° 1,PRIVADA SUBVENCIONADA,0291-1,,`,
	))

	var institutions []models.Institution
	suite.Require().Nil(suite.db.Find(&institutions).Error)
	suite.Require().Len(institutions, 1)
	suite.Assert().Equal("PRIVADA SUBVENCIONADA", institutions[0].InstitutionType)
	suite.Assert().Equal("0291-1", institutions[0].PhoneNumber)
}

func (suite *TestSuiteStandard) TestInstitutionsClearedValues() {
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments,
		establishmentsHeader,
		`2022,1001,11,CENTRAL,01,AREGUÁ,1,URBANA,010,CENTRO,,,`,
	))

	suite.Assert().Empty(suite.importCSV(reference.ModeInstitutions,
		institutionsHeader,
		`1001,1203,ESCUELA BÁSICA N° 1,OFICIAL,0291-1,https://escuela.example.com,escuela@example.com`,
	))
	suite.Assert().Empty(suite.importCSV(reference.ModeInstitutions,
		institutionsHeader,
		`1001,1203,ESCUELA BÁSICA N° 1,OFICIAL,,,`,
	))

	var institution models.Institution
	suite.Require().Nil(suite.db.First(&institution, "code = ?", "1203").Error)
	suite.Assert().Equal("OFICIAL", institution.InstitutionType)
	suite.Assert().Equal("", institution.PhoneNumber)
	suite.Assert().Equal("", institution.Website)
	suite.Assert().Equal("", institution.Email)
}

// Establishments that are not stored yet are imported from the
// institution file when it has the columns for them.
func (suite *TestSuiteStandard) TestInstitutionsWithEstablishment() {
	skipped := suite.importCSV(reference.ModeInstitutions,
		"codigo_establecimiento,codigo_departamento,nombre_departamento,codigo_distrito,nombre_distrito,codigo_barrio_localidad,nombre_barrio_localidad,codigo_institucion,nombre_institucion",
		`1001,11,CENTRAL,01,AREGUÁ,010,CENTRO,1203,ESCUELA BÁSICA N° 1`,
		`1001,,,,,,,1204,COLEGIO NACIONAL`,
		`1002,,,,,,,1205,ESCUELA SIN LOCAL`,
	)

	suite.Assert().Equal([]importer.SkippedRow{
		{Row: 4, Reason: "missing department code (codigo_departamento)"},
	}, skipped)

	suite.Assert().Equal(int64(1), suite.count(&models.Establishment{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Institution{}))

	var institution models.Institution
	suite.Require().Nil(suite.db.First(&institution, "code = ?", "1203").Error)
	suite.Assert().Equal("DESCONOCIDO", institution.InstitutionType)
}

func (suite *TestSuiteStandard) TestSemicolons() {
	skipped := suite.importCSV(reference.ModeEstablishments,
		strings.ReplaceAll(establishmentsHeader, ",", ";"),
		`2022;1001;1;CONCEPCIÓN;01;CONCEPCIÓN;1;URBANA;010;SAN ANTONIO;Calle 1, esquina 2;;`,
	)
	suite.Assert().Empty(skipped)

	var establishment models.Establishment
	suite.Require().Nil(suite.db.First(&establishment).Error)
	suite.Assert().Equal("Calle 1, esquina 2", establishment.Address)
}

// Spreadsheet programs prefix UTF-8 exports with a byte order mark.
func (suite *TestSuiteStandard) TestBOMHeader() {
	skipped := suite.importCSV(reference.ModeEstablishments,
		"\ufeff"+establishmentsHeader,
		`2022,1001,1,CONCEPCIÓN,01,CONCEPCIÓN,1,URBANA,010,SAN ANTONIO,Calle 1,,`,
	)
	suite.Assert().Empty(skipped)

	var establishment models.Establishment
	suite.Require().Nil(suite.db.First(&establishment, "code = ?", "1001").Error)
	suite.Require().NotNil(establishment.LastDataCapture, "the first column must be found despite the byte order mark")
	suite.Assert().Equal(int64(2022), *establishment.LastDataCapture)
}

func (suite *TestSuiteStandard) TestEmpty() {
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments))
	suite.Assert().Empty(suite.importCSV(reference.ModeEstablishments, establishmentsHeader))
}

func (suite *TestSuiteStandard) TestMalformed() {
	i, err := reference.New(suite.db, strings.NewReader(establishmentsHeader+"\n"+`2022,"1001,1`), reference.ModeEstablishments)
	suite.Require().Nil(err)

	_, err = i.Process(suite.T().Context())
	suite.Require().NotNil(err)
	suite.Assert().Equal(importer.Structural, importer.KindOf(err))
}

func (suite *TestSuiteStandard) TestUnknownMode() {
	_, err := reference.New(suite.db, strings.NewReader(establishmentsHeader), reference.Mode("schools"))
	suite.Require().NotNil(err)
	suite.Assert().Equal(importer.Structural, importer.KindOf(err))
}
