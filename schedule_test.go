package fa

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteSchedule(t *testing.T) {
	apple := CompanyInfo{Country: "United States", Name: "Apple Inc.", Address: "One Apple Park Way Cupertino CA", ZipCode: "95014", Nature: "Public Limited Company"}
	sap := CompanyInfo{Country: "Germany", Name: "SAP SE", Address: "Dietmar-Hopp-Allee 16, Walldorf", ZipCode: "69190", Nature: "Technology"}
	rows := []Row{
		{Symbol: "SAP", VestDate: d("2023-03-01"), Company: sap, Initial: M(1000.5, INR), Peak: M(2000, INR), Closing: M(1500, INR), Paid: M(0, INR), Proceeds: M(0, INR)},
		{Symbol: "AAPL", VestDate: d("2023-05-15"), Company: apple, Initial: M(185787.5, INR), Peak: M(200000.49, INR), Closing: M(190000, INR), Paid: M(0, INR), Proceeds: M(825000, INR)},
		{Symbol: "AAPL", VestDate: d("2023-02-15"), Company: apple, Initial: M(517187.5, INR), Peak: M(1085500, INR), Closing: M(622500, INR), Paid: M(0, INR), Proceeds: M(0, INR)},
	}
	countries := NewCache("")

	var buf bytes.Buffer
	if err := WriteSchedule(&buf, rows, countries.CountryCode); err != nil {
		t.Fatalf("WriteSchedule() error = %v", err)
	}

	want := strings.Join([]string{
		`"Country/Region name","Country Name and Code","Name of entity","Address of entity","ZIP Code","Nature of entity","Date of acquiring the interest","Initial value of the investment","Peak value of investment during the Period","Closing balance","Total gross amount paid/credited with respect to the holding during the period","Total gross proceeds from sale or redemption of investment during the period"`,
		`1,2,Apple Inc.,One Apple Park Way Cupertino CA,95014,Public Limited Company,2023-02-15,517188,1085500,622500,0,0`,
		`2,2,Apple Inc.,One Apple Park Way Cupertino CA,95014,Public Limited Company,2023-05-15,185788,200000,190000,0,825000`,
		`3,5,SAP SE,"Dietmar-Hopp-Allee 16, Walldorf",69190,Technology,2023-03-01,1000,2000,1500,0,0`,
		``,
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("WriteSchedule() =\n%s\nwant\n%s", got, want)
	}

	// the caller's rows are left untouched
	if rows[0].Symbol != "SAP" {
		t.Errorf("WriteSchedule() sorted the caller's rows")
	}
}

func TestMoney_Whole(t *testing.T) {
	testCases := []struct {
		value float64
		want  int64
	}{
		{185787.5, 185788},
		{185786.5, 185786},
		{517187.5, 517188},
		{1040625.4, 1040625},
		{0.5, 0},
		{1.5, 2},
	}
	for _, tc := range testCases {
		if got := M(tc.value, INR).Whole(); got != tc.want {
			t.Errorf("M(%v).Whole() = %d, want %d", tc.value, got, tc.want)
		}
	}
}
