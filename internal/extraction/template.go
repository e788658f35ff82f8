package extraction

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"formextract/pkg/models"
)

// Field is one entry of a form template. A field with Subfields is a
// composite (an object of string leaves); otherwise it is a string leaf.
type Field struct {
	Name      string
	Subfields []string
}

// Template is the ordered set of fields the LLM must fill.
type Template []Field

var dateSubfields = []string{"day", "month", "year"}

// ClaimFormTemplate is the work-injury claim form.
func ClaimFormTemplate() Template {
	return Template{
		{Name: "lastName"},
		{Name: "firstName"},
		{Name: "idNumber"},
		{Name: "gender"},
		{Name: "dateOfBirth", Subfields: dateSubfields},
		{Name: "address", Subfields: []string{"street", "houseNumber", "entrance", "apartment", "city", "postalCode", "poBox"}},
		{Name: "landlinePhone"},
		{Name: "mobilePhone"},
		{Name: "jobType"},
		{Name: "dateOfInjury", Subfields: dateSubfields},
		{Name: "timeOfInjury"},
		{Name: "accidentLocation"},
		{Name: "accidentAddress"},
		{Name: "accidentDescription"},
		{Name: "injuredBodyPart"},
		{Name: "signature"},
		{Name: "formFillingDate", Subfields: dateSubfields},
		{Name: "formReceiptDateAtClinic", Subfields: dateSubfields},
		{Name: "medicalInstitutionFields", Subfields: []string{"healthFundMember", "natureOfAccident", "medicalDiagnoses"}},
	}
}

// Skeleton returns the template with every leaf set to "".
func (t Template) Skeleton() models.StructuredExtraction {
	return t.Conform(nil)
}

// JSON renders the skeleton as indented JSON in template order.
func (t Template) JSON() string {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, field := range t {
		buf.WriteString("  " + strconv.Quote(field.Name) + ": ")
		if len(field.Subfields) == 0 {
			buf.WriteString(`""`)
		} else {
			buf.WriteString("{\n")
			for j, sub := range field.Subfields {
				buf.WriteString("    " + strconv.Quote(sub) + `: ""`)
				if j < len(field.Subfields)-1 {
					buf.WriteByte(',')
				}
				buf.WriteByte('\n')
			}
			buf.WriteString("  }")
		}
		if i < len(t)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}")
	return buf.String()
}

// Conform copies only the template's fields out of raw. Missing fields and
// composites that are not objects become empty strings, scalar leaves are
// rendered as strings, and confidence metadata is never copied.
func (t Template) Conform(raw map[string]any) models.StructuredExtraction {
	out := make(models.StructuredExtraction, len(t))
	for _, field := range t {
		if isConfidenceKey(field.Name) {
			continue
		}
		if len(field.Subfields) == 0 {
			out[field.Name] = leafValue(raw[field.Name])
			continue
		}

		src, _ := raw[field.Name].(map[string]any)
		group := make(map[string]any, len(field.Subfields))
		for _, sub := range field.Subfields {
			group[sub] = leafValue(src[sub])
		}
		out[field.Name] = group
	}
	return out
}

// Fields lists every leaf path in template order, e.g. "dateOfBirth.day".
func (t Template) Fields() []string {
	var paths []string
	for _, field := range t {
		if len(field.Subfields) == 0 {
			paths = append(paths, field.Name)
			continue
		}
		for _, sub := range field.Subfields {
			paths = append(paths, field.Name+"."+sub)
		}
	}
	return paths
}

func isConfidenceKey(key string) bool {
	return key == "confidences" || strings.HasSuffix(key, "_confidence")
}

func leafValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
