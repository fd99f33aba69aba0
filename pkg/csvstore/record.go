package csvstore

// Header is the fixed column header written as the first line of every store.
var Header = []string{
	"Full Name",
	"Email",
	"Country Code",
	"Phone Number",
	"Country",
	"Interests",
	"Timestamp",
	"IP Address",
}

// Record is one waitlist row. Field order matches Header.
type Record struct {
	FullName    string
	Email       string
	CountryCode string
	Phone       string
	Country     string
	Interests   string
	Timestamp   string
	IPAddress   string
}

func (r Record) CSVRow() []string {
	return []string{
		r.FullName,
		r.Email,
		r.CountryCode,
		r.Phone,
		r.Country,
		r.Interests,
		r.Timestamp,
		r.IPAddress,
	}
}

func recordFromRow(row []string) (Record, bool) {
	if len(row) != len(Header) {
		return Record{}, false
	}

	return Record{
		FullName:    row[0],
		Email:       row[1],
		CountryCode: row[2],
		Phone:       row[3],
		Country:     row[4],
		Interests:   row[5],
		Timestamp:   row[6],
		IPAddress:   row[7],
	}, true
}

func isCanonicalHeader(row []string) bool {
	if len(row) != len(Header) {
		return false
	}
	for i := range Header {
		if row[i] != Header[i] {
			return false
		}
	}
	return true
}
