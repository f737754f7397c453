package quote

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidValidity = errors.New("validez must be a whole number of days")

var modelKeys = []string{"machine", "modelo", "plantilla", "model"}

// known: поля тела запроса, которые не считаются переопределениями опций.
var known = map[string]bool{
	"machine": true, "modelo": true, "plantilla": true, "model": true,
	"cliente": true, "asesor": true, "fecha": true,
	"validez": true, "validez_dias": true, "moneda": true, "disponibilidad": true,
	"notas": true, "flete_texto": true, "flete_monto": true, "selections": true,
}

// ParseRequest собирает Request из свободного JSON-тела.
// Неизвестные ключи верхнего уровня попадают в Overrides и уступают selections.
func ParseRequest(body map[string]any) (Request, error) {
	var req Request

	for _, k := range modelKeys {
		if s := stringOf(body[k]); s != "" {
			req.Model = s
			break
		}
	}

	req.Client = stringOf(body["cliente"])
	req.Advisor = stringOf(body["asesor"])
	req.Date = stringOf(body["fecha"])
	req.Currency = stringOf(body["moneda"])
	req.Availability = stringOf(body["disponibilidad"])
	req.Notes = stringOf(body["notas"])
	req.FreightText = stringOf(body["flete_texto"])
	req.Freight = body["flete_monto"]

	for _, k := range []string{"validez", "validez_dias"} {
		v, ok := body[k]
		if !ok || v == nil || stringOf(v) == "" {
			continue
		}
		days, err := intOf(v)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %v", ErrInvalidValidity, v)
		}
		req.ValidityDays = &days
		break
	}

	req.Selections = Selection{}
	if sel, ok := body["selections"].(map[string]any); ok {
		for k, v := range sel {
			req.Selections[k] = v
		}
	}
	for k, v := range body {
		if known[k] {
			continue
		}
		if req.Overrides == nil {
			req.Overrides = Selection{}
		}
		req.Overrides[k] = v
	}

	return req, nil
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func intOf(v any) (int, error) {
	switch x := v.(type) {
	case float64:
		if x != float64(int(x)) {
			return 0, ErrInvalidValidity
		}
		return int(x), nil
	case int:
		return x, nil
	default:
		return strconv.Atoi(stringOf(v))
	}
}
