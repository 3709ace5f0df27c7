package airfoil

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// airfoiltools.com 导出的曲线 csv
// 第 4 行为雷诺数，第 5 行为 Ncrit，前 11 行为表头，之后每行 Alpha(度),Cl,Cd,...
const (
	reynoldsLine = 4
	ncritLine    = 5
	headerLines  = 11
)

// ReadCSV 读取一条曲线，攻角转换为弧度并升序排列
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var t Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("%w: %v", ErrInvalidPolar, err)
		}
		// 空行会被跳过，行号取文件中的实际行号
		line, _ := reader.FieldPos(0)
		switch {
		case line == reynoldsLine:
			if t.Reynolds, err = headerValue(record); err != nil {
				return Table{}, fmt.Errorf("%w: reynolds: %v", ErrInvalidPolar, err)
			}
		case line == ncritLine:
			if t.Ncrit, err = headerValue(record); err != nil {
				return Table{}, fmt.Errorf("%w: ncrit: %v", ErrInvalidPolar, err)
			}
		case line > headerLines:
			if len(record) < 3 || strings.TrimSpace(record[0]) == "" {
				continue
			}
			var row [3]float64
			for i := range row {
				if row[i], err = strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err != nil {
					return Table{}, fmt.Errorf("%w: row %d: %v", ErrInvalidPolar, line, err)
				}
			}
			t.Alpha = append(t.Alpha, row[0]*math.Pi/180)
			t.Cl = append(t.Cl, row[1])
			t.Cd = append(t.Cd, row[2])
		}
	}
	t.Sort()
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func headerValue(record []string) (float64, error) {
	if len(record) < 2 {
		return 0, fmt.Errorf("missing value in %q", strings.Join(record, ","))
	}
	return strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
}

// LoadDir 读取目录下所有 csv 曲线，目录名作为翼型名
func LoadDir(dir string) (*Library, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no csv files in %s", ErrInvalidPolar, dir)
	}
	lib := NewLibrary(filepath.Base(dir))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		t, err := ReadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err = lib.Add(t); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.WithFields(log.Fields{
			"file":     filepath.Base(path),
			"reynolds": t.Reynolds,
			"ncrit":    t.Ncrit,
			"samples":  len(t.Alpha),
		}).Debug("polar loaded")
	}
	return lib, nil
}
