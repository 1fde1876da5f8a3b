package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seojaehong/hr-mvp-app/worktime"
)

// recordsFile is the object form of a records file.
type recordsFile struct {
	EmployeeID      string               `yaml:"employee_id"`
	Period          string               `yaml:"period"`
	Mode            string               `yaml:"mode"`
	HireDate        string               `yaml:"hire_date"`
	ResignationDate string               `yaml:"resignation_date"`
	Records         []worktime.RawRecord `yaml:"records"`
}

// inputFlags are the calculation input flags shared by calc and simulate.
type inputFlags struct {
	records         string
	employeeID      string
	period          string
	mode            string
	hireDate        string
	resignationDate string
}

func (in *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.records, "records", "r", "", "Records file (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&in.employeeID, "employee", "", "Employee id")
	cmd.Flags().StringVarP(&in.period, "period", "p", "", "Period YYYY-MM")
	cmd.Flags().StringVar(&in.mode, "mode", "", "attendance or timecard (default: detect)")
	cmd.Flags().StringVar(&in.hireDate, "hire-date", "", "Hire date YYYY-MM-DD")
	cmd.Flags().StringVar(&in.resignationDate, "resignation-date", "", "Resignation date YYYY-MM-DD")
	cmd.MarkFlagRequired("records")
}

// request reads the records file and applies the flags over it.
func (in *inputFlags) request(stdin io.Reader) (worktime.Request, error) {
	data, err := readInput(in.records, stdin)
	if err != nil {
		return worktime.Request{}, err
	}
	file, err := parseRecords(data)
	if err != nil {
		return worktime.Request{}, err
	}

	override(&file.EmployeeID, in.employeeID)
	override(&file.Period, in.period)
	override(&file.Mode, in.mode)
	override(&file.HireDate, in.hireDate)
	override(&file.ResignationDate, in.resignationDate)

	mode, ok := worktime.ParseMode(file.Mode)
	if !ok {
		return worktime.Request{}, fmt.Errorf("unknown mode %q", file.Mode)
	}
	hire, err := parseDate("hire date", file.HireDate)
	if err != nil {
		return worktime.Request{}, err
	}
	resign, err := parseDate("resignation date", file.ResignationDate)
	if err != nil {
		return worktime.Request{}, err
	}

	return worktime.Request{
		Records:         file.Records,
		Period:          file.Period,
		EmployeeID:      file.EmployeeID,
		Mode:            mode,
		HireDate:        hire,
		ResignationDate: resign,
	}, nil
}

// parseRecords accepts a bare list or the object form. YAML decoding covers
// JSON input too.
func parseRecords(data []byte) (recordsFile, error) {
	var list []worktime.RawRecord
	if err := yaml.Unmarshal(data, &list); err == nil {
		return recordsFile{Records: list}, nil
	}
	var file recordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return recordsFile{}, fmt.Errorf("failed to parse records: %w", err)
	}
	return file, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, s, worktime.ErrInvalidDate)
	}
	return &t, nil
}

func override(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
