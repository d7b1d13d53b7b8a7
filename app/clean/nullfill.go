package clean

import "datasift/app/table"

// UnknownValue replaces missing values in columns that are neither numeric
// nor date-time
const UnknownValue = "unknown"

// FillMissing replaces every missing marker according to the column kind:
// numbers become 0, date-times become the no-value sentinel and everything
// else becomes UnknownValue. A duration column with missing values is
// rendered to strings first so the column stays homogeneous.
func FillMissing(col table.Column) table.Column {
	missing := col.MissingCount()
	if missing == 0 {
		return col
	}

	var fill table.Value
	switch col.Kind {
	case table.KindInteger:
		fill = table.Int(0)
	case table.KindFloat:
		fill = table.Float(0)
	case table.KindDateTime:
		fill = table.NoTime()
	case table.KindDuration:
		col = durationsAsStrings(col)
		fill = table.String(UnknownValue)
	default:
		fill = table.String(UnknownValue)
	}

	out := col.Clone()
	for i, v := range out.Values {
		if v.IsMissing() {
			out.Values[i] = fill
		}
	}
	return out
}

func durationsAsStrings(col table.Column) table.Column {
	out := table.Column{Name: col.Name, Kind: table.KindString, Values: make([]table.Value, len(col.Values))}
	for i, v := range col.Values {
		if v.IsMissing() {
			out.Values[i] = v
			continue
		}
		out.Values[i] = table.String(v.Format(table.KindDuration))
	}
	return out
}
