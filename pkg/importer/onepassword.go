package importer

// OnePasswordParser parses 1Password CSV exports.
type OnePasswordParser struct{}

// 1Password CSV columns.
const (
	op1ColTitle    = "Title"
	op1ColWebsite  = "Website"
	op1ColUsername = "Username"
	op1ColPassword = "Password"
)

// Source returns the source type for this parser.
func (p *OnePasswordParser) Source() Source {
	return Source1Password
}

// Parse parses 1Password CSV data. Column names are case-sensitive.
func (p *OnePasswordParser) Parse(data []byte) (*Result, error) {
	result := newResult()
	counter := 1

	identity := func(s string) string { return s }
	err := csvRows(data, op1ColTitle, identity, result, func(_ int, get func(string) string) {
		title := get(op1ColTitle)
		rec, reason := login(SiteName(title, get(op1ColWebsite), &counter), get(op1ColUsername), get(op1ColPassword))
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedItem{Name: title, Reason: reason})
			return
		}
		result.Records = append(result.Records, rec)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
