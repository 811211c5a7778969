// Package modules defines the host-provided tengo modules available to
// strategy scripts. The module surface is the capability allow-list: scripts
// get pure numeric primitives and nothing else.
package modules

import (
	"github.com/d5/tengo/v2"

	"github.com/rustyeddy/quantfolio/indicators"
)

// TA is the technical-analysis module. Every function takes a price array
// (oldest first) and returns the indicator value as of the last element.
//
//	ta := import("ta")
//	fast := ta.sma(closes["SPY"], 20)
var TA = map[string]tengo.Object{
	"sma":        &tengo.UserFunction{Name: "sma", Value: seriesFunc(indicators.SMA)},
	"ema":        &tengo.UserFunction{Name: "ema", Value: seriesFunc(indicators.EMA)},
	"rsi":        &tengo.UserFunction{Name: "rsi", Value: seriesFunc(indicators.RSI)},
	"momentum":   &tengo.UserFunction{Name: "momentum", Value: seriesFunc(indicators.Momentum)},
	"volatility": &tengo.UserFunction{Name: "volatility", Value: seriesFunc(indicators.Volatility)},
	"atr":        &tengo.UserFunction{Name: "atr", Value: atr},
}

// seriesFunc adapts an indicator over (values, period) to a tengo call.
func seriesFunc(fn func([]float64, int) (float64, error)) tengo.CallableFunc {
	return func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		values, err := toFloats(args[0])
		if err != nil {
			return nil, err
		}
		period, ok := tengo.ToInt(args[1])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "period", Expected: "int", Found: args[1].TypeName()}
		}
		v, err := fn(values, period)
		if err != nil {
			return nil, err
		}
		return &tengo.Float{Value: v}, nil
	}
}

// atr takes (highs, lows, closes, period).
func atr(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 4 {
		return nil, tengo.ErrWrongNumArguments
	}
	highs, err := toFloats(args[0])
	if err != nil {
		return nil, err
	}
	lows, err := toFloats(args[1])
	if err != nil {
		return nil, err
	}
	closes, err := toFloats(args[2])
	if err != nil {
		return nil, err
	}
	period, ok := tengo.ToInt(args[3])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "period", Expected: "int", Found: args[3].TypeName()}
	}
	v, err := indicators.ATR(highs, lows, closes, period)
	if err != nil {
		return nil, err
	}
	return &tengo.Float{Value: v}, nil
}

func toFloats(o tengo.Object) ([]float64, error) {
	arr, ok := o.(*tengo.Array)
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "values", Expected: "array", Found: o.TypeName()}
	}
	out := make([]float64, len(arr.Value))
	for i, el := range arr.Value {
		v, ok := tengo.ToFloat64(el)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "values", Expected: "float", Found: el.TypeName()}
		}
		out[i] = v
	}
	return out, nil
}
