package fa

const publicLimitedCompany = "Public Limited Company"

// knownIssuers lists the issuers most often found in equity compensation plans,
// used when the provider cannot describe a symbol.
var knownIssuers = map[string]CompanyInfo{
	"AAPL":  {"United States", "Apple Inc.", "One Apple Park Way Cupertino CA", "95014", publicLimitedCompany},
	"MSFT":  {"United States", "Microsoft Corporation", "One Microsoft Way Redmond WA", "98052", publicLimitedCompany},
	"AMZN":  {"United States", "Amazon.com Inc.", "410 Terry Avenue North Seattle WA", "98109", publicLimitedCompany},
	"GOOG":  {"United States", "Alphabet Inc.", "1600 Amphitheatre Parkway Mountain View CA", "94043", publicLimitedCompany},
	"GOOGL": {"United States", "Alphabet Inc.", "1600 Amphitheatre Parkway Mountain View CA", "94043", publicLimitedCompany},
	"TSLA":  {"United States", "Tesla Inc.", "1 Tesla Road Austin TX", "78725", publicLimitedCompany},
	"NVDA":  {"United States", "NVIDIA Corporation", "2788 San Tomas Expressway Santa Clara CA", "95051", publicLimitedCompany},
	"META":  {"United States", "Meta Platforms Inc.", "1 Meta Way Menlo Park CA", "94025", publicLimitedCompany},
	"UBER":  {"United States", "Uber Technologies Inc.", "1515 3rd Street San Francisco CA", "94158", publicLimitedCompany},
	"SNAP":  {"United States", "Snap Inc.", "2772 Donald Douglas Loop North Santa Monica CA", "90405", publicLimitedCompany},
}

// placeholderIssuer synthesizes an issuer for an unknown symbol. It must be
// reviewed by hand before filing.
func placeholderIssuer(symbol string) CompanyInfo {
	return CompanyInfo{
		Country: "United States",
		Name:    symbol + " Inc.",
		Address: "123 Main Street New York NY",
		ZipCode: "10001",
		Nature:  publicLimitedCompany,
	}
}

// offlineIssuer is the description used in cache-only mode for an uncached symbol.
func offlineIssuer(symbol string) CompanyInfo {
	return CompanyInfo{
		Country: "United States",
		Name:    symbol + " Inc.",
		Address: "N/A",
		ZipCode: "N/A",
		Nature:  "Public Company",
	}
}
