package strata

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/tantralabs/strata/models"
)

// LoadBars loads a bar series from a local csv file with a
// timestamp,open,high,low,close,volume header, sorted ascending.
func LoadBars(fileName string) ([]*models.Bar, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var bars []*models.Bar
	if err := gocsv.UnmarshalFile(file, &bars); err != nil {
		return nil, err
	}
	models.SortBars(bars)
	return bars, nil
}

// SumArr sums an array of floats.
func SumArr(arr []float64) float64 {
	var sum float64
	for _, v := range arr {
		sum += v
	}
	return sum
}

// CalculateDifference returns the percent difference of x from y.
func CalculateDifference(x float64, y float64) float64 {
	if y == 0 {
		y = 1
	}
	return (x - y) / y
}

// ToFixed rounds a float to a fixed number of decimal places.
func ToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(round(num*output)) / output
}

func round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

// CreateKeyValuePairs formats a map as sorted key="value" lines.
func CreateKeyValuePairs(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	b := new(bytes.Buffer)
	for _, key := range keys {
		fmt.Fprintf(b, "%s=\"%v\"\n", key, m[key])
	}
	return b.String()
}
