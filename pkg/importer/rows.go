package importer

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

type column string

const (
	colLastName       column = "last_name"
	colMiddleName     column = "middle_name"
	colFirstName      column = "first_name"
	colEmail          column = "email"
	colPhone          column = "phone"
	colExternalID     column = "external_id"
	colPosition       column = "position"
	colDepartment     column = "department"
	colDocumentType   column = "document_type"
	colDocumentNumber column = "document_number"
)

// headerAliases maps normalized header text to a column. Headers are matched
// after normalizers.Normalize, so "Prénom", "PRENOM" and "pré-nom" are the same.
var headerAliases = map[string]column{
	"lastname":       colLastName,
	"nom":            colLastName,
	"nomdefamille":   colLastName,
	"surname":        colLastName,
	"middlename":     colMiddleName,
	"postnom":        colMiddleName,
	"firstname":      colFirstName,
	"prenom":         colFirstName,
	"email":          colEmail,
	"mail":           colEmail,
	"courriel":       colEmail,
	"adresseemail":   colEmail,
	"phone":          colPhone,
	"telephone":      colPhone,
	"tel":            colPhone,
	"externalid":     colExternalID,
	"matricule":      colExternalID,
	"employeeid":     colExternalID,
	"position":       colPosition,
	"positionname":   colPosition,
	"fonction":       colPosition,
	"poste":          colPosition,
	"department":     colDepartment,
	"departmentname": colDepartment,
	"departement":    colDepartment,
	"service":        colDepartment,
	"direction":      colDepartment,
	"documenttype":   colDocumentType,
	"typedocument":   colDocumentType,
	"typedepiece":    colDocumentType,
	"documentnumber": colDocumentNumber,
	"numerodocument": colDocumentNumber,
	"numerodepiece":  colDocumentNumber,
}

type headerMap map[column]int

func buildHeaderMap(header []string) (headerMap, error) {
	hm := make(headerMap)
	for i, h := range header {
		col, ok := headerAliases[normalizers.Normalize(h)]
		if !ok {
			continue
		}
		// first occurrence wins
		if _, seen := hm[col]; !seen {
			hm[col] = i
		}
	}

	var missing []string
	for _, required := range []column{colLastName, colFirstName} {
		if _, ok := hm[required]; !ok {
			missing = append(missing, string(required))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required columns not found: %s", strings.Join(missing, ", "))
	}
	return hm, nil
}

func (hm headerMap) get(row []string, col column) string {
	idx, ok := hm[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return normalizers.CollapseSpaces(row[idx])
}

// parseRows maps spreadsheet rows to agents. The first non-empty row is the header.
// Row numbers in warnings are 1-based, as a spreadsheet shows them.
func parseRows(rows [][]string) (*Result, error) {
	headerIdx := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("file is empty")
	}

	hm, err := buildHeaderMap(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	result := &Result{
		Agents:   []models.Agent{},
		Warnings: []models.ImportWarning{},
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowNumber := i + 1

		agent := models.Agent{
			Identity: models.Identity{
				LastName:   hm.get(row, colLastName),
				MiddleName: hm.get(row, colMiddleName),
				FirstName:  hm.get(row, colFirstName),
			},
			Contact: models.Contact{
				Email: normalizers.NormalizeEmail(hm.get(row, colEmail)),
				Phone: hm.get(row, colPhone),
			},
			Professional: models.Professional{
				ExternalID:     hm.get(row, colExternalID),
				PositionName:   hm.get(row, colPosition),
				DepartmentName: hm.get(row, colDepartment),
			},
		}

		if agent.LastName == "" || agent.FirstName == "" {
			result.Warnings = append(result.Warnings, models.ImportWarning{
				Row:     rowNumber,
				Message: "missing last name or first name, row skipped",
			})
			continue
		}

		docType, docNumber := hm.get(row, colDocumentType), hm.get(row, colDocumentNumber)
		switch {
		case docType != "" && docNumber != "":
			agent.Documents = []models.Document{{DocumentType: docType, DocumentNumber: docNumber}}
		case docNumber != "":
			result.Warnings = append(result.Warnings, models.ImportWarning{
				Row:     rowNumber,
				Message: "document number without document type ignored",
			})
		}

		result.Agents = append(result.Agents, agent)
	}

	return result, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
