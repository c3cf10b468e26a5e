package fmp

// profileResponse is one element of /api/v3/profile/{symbol}
type profileResponse struct {
	Symbol            string   `json:"symbol"`
	CompanyName       string   `json:"companyName"`
	Price             *float64 `json:"price"`
	MktCap            *float64 `json:"mktCap"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	Country           string   `json:"country"`
	ExchangeShortName string   `json:"exchangeShortName"`
	IsActivelyTrading bool     `json:"isActivelyTrading"`
}

// quoteResponse is one element of /api/v3/quote/{symbol}
type quoteResponse struct {
	Symbol            string   `json:"symbol"`
	Price             *float64 `json:"price"`
	MarketCap         *float64 `json:"marketCap"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	PE                *float64 `json:"pe"`
	EPS               *float64 `json:"eps"`
}

// incomeStatement is one annual period of /api/v3/income-statement/{symbol}
type incomeStatement struct {
	Date              string   `json:"date"` // YYYY-MM-DD
	Symbol            string   `json:"symbol"`
	Revenue           *float64 `json:"revenue"`
	CostOfRevenue     *float64 `json:"costOfRevenue"`
	GrossProfit       *float64 `json:"grossProfit"`
	OperatingExpenses *float64 `json:"operatingExpenses"`
	OperatingIncome   *float64 `json:"operatingIncome"`
	NetIncome         *float64 `json:"netIncome"`
}

// balanceSheet is one annual period of /api/v3/balance-sheet-statement/{symbol}
type balanceSheet struct {
	Date                    string   `json:"date"`
	Symbol                  string   `json:"symbol"`
	TotalAssets             *float64 `json:"totalAssets"`
	TotalCurrentAssets      *float64 `json:"totalCurrentAssets"`
	TotalCurrentLiabilities *float64 `json:"totalCurrentLiabilities"`
	TotalDebt               *float64 `json:"totalDebt"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
}

// screenerResult is one row of /stable/company-screener
type screenerResult struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	MarketCap         float64 `json:"marketCap"`
	Sector            string  `json:"sector"`
	Industry          string  `json:"industry"`
	Country           string  `json:"country"`
	ExchangeShortName string  `json:"exchangeShortName"`
	IsEtf             bool    `json:"isEtf"`
	IsFund            bool    `json:"isFund"`
	IsActivelyTrading bool    `json:"isActivelyTrading"`
}

// errorResponse is the body FMP returns instead of data on failure
type errorResponse struct {
	ErrorMessage string `json:"Error Message"`
}
