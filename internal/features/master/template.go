package master

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateTemplate builds an upload template workbook for a master type:
// one sheet, one header row of field labels with required fields marked.
// Pure with respect to application state.
func (s *MasterServiceImpl) GenerateTemplate(masterKey string) ([]byte, error) {
	t, err := s.Registry.Get(masterKey)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, field := range t.Fields {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		label := field.Label
		if field.Required {
			label += " *"
		}
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}
