package roller

import (
	"fmt"
	"math"
	"time"

	"github.com/louisbranch/drex/internal/services/dice/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func rollToValue(roll service.RollResult) *structpb.Value {
	terms := make([]*structpb.Value, len(roll.Terms))
	for i, term := range roll.Terms {
		terms[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"term":   structpb.NewStringValue(term.Term),
			"values": intsToValue(term.Values),
			"total":  structpb.NewNumberValue(float64(term.Total)),
		}})
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"expression": structpb.NewStringValue(roll.Expression),
		"total":      structpb.NewNumberValue(float64(roll.Total)),
		"text":       structpb.NewStringValue(roll.Text),
		"terms":      structpb.NewListValue(&structpb.ListValue{Values: terms}),
	}})
}

func rollFromValue(v *structpb.Value) (service.RollResult, error) {
	s := v.GetStructValue()
	if s == nil {
		return service.RollResult{}, fmt.Errorf("roll is not an object")
	}
	total, err := intField(s, "total")
	if err != nil {
		return service.RollResult{}, err
	}
	out := service.RollResult{
		Expression: stringField(s, "expression"),
		Total:      total,
		Text:       stringField(s, "text"),
	}
	for _, tv := range s.GetFields()["terms"].GetListValue().GetValues() {
		ts := tv.GetStructValue()
		if ts == nil {
			return service.RollResult{}, fmt.Errorf("term is not an object")
		}
		values, err := intsFromValue(ts.GetFields()["values"])
		if err != nil {
			return service.RollResult{}, err
		}
		termTotal, err := intField(ts, "total")
		if err != nil {
			return service.RollResult{}, err
		}
		out.Terms = append(out.Terms, service.TermResult{
			Term:   stringField(ts, "term"),
			Values: values,
			Total:  termTotal,
		})
	}
	return out, nil
}

func rollsToStruct(rolls []service.RollResult) *structpb.Struct {
	values := make([]*structpb.Value, len(rolls))
	for i, roll := range rolls {
		values[i] = rollToValue(roll)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"rolls": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func rollsFromStruct(s *structpb.Struct) ([]service.RollResult, error) {
	list := s.GetFields()["rolls"].GetListValue().GetValues()
	rolls := make([]service.RollResult, 0, len(list))
	for _, v := range list {
		roll, err := rollFromValue(v)
		if err != nil {
			return nil, err
		}
		rolls = append(rolls, roll)
	}
	return rolls, nil
}

func historyToStruct(page service.HistoryPage) *structpb.Struct {
	rolls := make([]*structpb.Value, len(page.Rolls))
	for i, entry := range page.Rolls {
		values := make([]*structpb.Value, len(entry.Values))
		for j, termValues := range entry.Values {
			values[j] = intsToValue(termValues)
		}
		rolls[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":         structpb.NewNumberValue(float64(entry.ID)),
			"expression": structpb.NewStringValue(entry.Expression),
			"text":       structpb.NewStringValue(entry.Text),
			"total":      structpb.NewNumberValue(float64(entry.Total)),
			"values":     structpb.NewListValue(&structpb.ListValue{Values: values}),
			"rolled_at":  structpb.NewStringValue(entry.RolledAt.UTC().Format(time.RFC3339Nano)),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"rolls":           structpb.NewListValue(&structpb.ListValue{Values: rolls}),
		"next_page_token": structpb.NewStringValue(page.NextPageToken),
		"total_count":     structpb.NewNumberValue(float64(page.TotalCount)),
	}}
}

func historyFromStruct(s *structpb.Struct) (service.HistoryPage, error) {
	totalCount, err := intField(s, "total_count")
	if err != nil {
		return service.HistoryPage{}, err
	}
	page := service.HistoryPage{
		NextPageToken: stringField(s, "next_page_token"),
		TotalCount:    totalCount,
	}
	for _, v := range s.GetFields()["rolls"].GetListValue().GetValues() {
		rs := v.GetStructValue()
		if rs == nil {
			return service.HistoryPage{}, fmt.Errorf("history entry is not an object")
		}
		id, err := intField(rs, "id")
		if err != nil {
			return service.HistoryPage{}, err
		}
		total, err := intField(rs, "total")
		if err != nil {
			return service.HistoryPage{}, err
		}
		rolledAt, err := time.Parse(time.RFC3339Nano, stringField(rs, "rolled_at"))
		if err != nil {
			return service.HistoryPage{}, fmt.Errorf("rolled_at: %w", err)
		}
		entry := service.HistoryEntry{
			ID:         int64(id),
			Expression: stringField(rs, "expression"),
			Text:       stringField(rs, "text"),
			Total:      total,
			RolledAt:   rolledAt,
		}
		for _, tv := range rs.GetFields()["values"].GetListValue().GetValues() {
			values, err := intsFromValue(tv)
			if err != nil {
				return service.HistoryPage{}, err
			}
			entry.Values = append(entry.Values, values)
		}
		page.Rolls = append(page.Rolls, entry)
	}
	return page, nil
}

func intsToValue(values []int) *structpb.Value {
	list := make([]*structpb.Value, len(values))
	for i, value := range values {
		list[i] = structpb.NewNumberValue(float64(value))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func intsFromValue(v *structpb.Value) ([]int, error) {
	list := v.GetListValue().GetValues()
	out := make([]int, len(list))
	for i, item := range list {
		n, err := toInt(item.GetNumberValue())
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// intField reads a whole number. Missing fields read as zero.
func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	n, err := toInt(v.GetNumberValue())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// requiredInt reads a whole number that must be present, reporting
// InvalidArgument otherwise.
func requiredInt(s *structpb.Struct, name string) (int, error) {
	if _, ok := s.GetFields()[name]; !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, err := intField(s, name)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return n, nil
}

// Struct numbers are float64, which holds every integer up to 2^53 exactly.
const maxExactInt = 1 << 53

func toInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	if f > maxExactInt || f < -maxExactInt {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int(f), nil
}
