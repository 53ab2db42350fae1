package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"RiskForecast/internal/model"
)

// WriteForecastCSV writes the forecast rows as ds,yhat,yhat_lower,yhat_upper.
func WriteForecastCSV(path string, fc *model.Forecast) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create csv dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ds", "yhat", "yhat_lower", "yhat_upper"}); err != nil {
		return err
	}
	for _, p := range fc.Points {
		if err := w.Write([]string{
			p.Date.Format(time.DateOnly),
			strconv.FormatFloat(p.Yhat, 'f', -1, 64),
			strconv.FormatFloat(p.YhatLower, 'f', -1, 64),
			strconv.FormatFloat(p.YhatUpper, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
