package helpers

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/thedevsaddam/govalidator"
)

func init() {
	govalidator.AddCustomRule("positive_amount", func(field string, rule string, message string, value interface{}) error {
		rv := reflect.ValueOf(value)
		var f float64
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		default:
			return fmt.Errorf("The %s field must be a number", field)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			if message != "" {
				return errors.New(message)
			}
			return fmt.Errorf("The %s field must be a positive number", field)
		}
		return nil
	})
}
