package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

var ErrNoRows = errors.New("no rows to export")

// Export writes rows to path with a header line. In append mode rows are
// added without a header when path already holds data with the same columns.
func Export(path string, rows []Observation, appendMode bool) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	if appendMode {
		exists, err := hasData(path)
		if err != nil {
			return err
		}
		if exists {
			return appendRows(path, rows)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrap(err, "failed to write CSV using gocsv")
	}
	return file.Close()
}

func appendRows(path string, rows []Observation) error {
	if err := checkHeader(path); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := gocsv.MarshalCSVWithoutHeaders(&rows, writer); err != nil {
		return errors.Wrap(err, "failed to append to CSV file")
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV file")
	}
	return file.Close()
}

func hasData(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", path)
	}
	return info.Size() > 0, nil
}

// checkHeader refuses to append to a file written with other columns.
func checkHeader(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	got, err := csv.NewReader(file).Read()
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "failed to read header of %s", path)
	}
	want := Header()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return errors.Errorf("cannot append to %s: header %q does not match %q", path, strings.Join(got, ","), strings.Join(want, ","))
	}
	return nil
}

// Header lists the CSV columns in output order.
func Header() []string {
	t := reflect.TypeOf(Observation{})
	header := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		header = append(header, t.Field(i).Tag.Get("csv"))
	}
	return header
}

// Read loads every row of a file written by Export.
func Read(path string) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []Observation
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return rows, nil
}
