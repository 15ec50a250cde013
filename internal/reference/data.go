package reference

// Checked against the Computerworld and InformationWeek layoff timelines,
// TechCrunch's 2025 list and WARN filings.
var verifiedEntries = []entry{
	{"Oracle", "2026-01-30", 25000, "Tech", "Computerworld"},
	{"Amazon", "2026-01-28", 16000, "Tech", "Computerworld/InformationWeek"},
	{"ASML", "2026-01-28", 1700, "Semiconductors", "InformationWeek"},
	{"Dow", "2026-01-29", 4500, "Chemicals", "InformationWeek"},
	{"Ericsson", "2026-01-15", 1600, "Telecom", "Computerworld"},
	{"Meta", "2026-01-13", 1500, "Tech", "Computerworld/InformationWeek"},
	{"Kaseya", "2026-01-08", 250, "Tech", "Computerworld"},

	{"Amazon", "2025-10-28", 14000, "Tech", "Computerworld"},
	{"Intel", "2025-07-25", 16500, "Semiconductors", "Computerworld"},
	{"Microsoft", "2025-07-02", 9000, "Tech", "Computerworld"},
	{"Microsoft", "2025-05-01", 6000, "Tech", "TechCrunch"},
	{"Meta", "2025-01-14", 3600, "Tech", "Computerworld"},
	{"HPE", "2025-03-06", 2500, "Tech", "Computerworld"},
	{"HP", "2025-02-27", 2000, "Tech", "Computerworld"},
	{"Workday", "2025-02-05", 1750, "Tech", "Computerworld"},
	{"Autodesk", "2025-02-27", 1350, "Tech", "Computerworld"},
	{"Salesforce", "2025-02-04", 1000, "Tech", "Computerworld"},
	{"CrowdStrike", "2025-05-07", 500, "Security", "Computerworld"},
	{"Cisco", "2025-08-18", 221, "Tech", "Computerworld (WARN)"},
	{"Oracle", "2025-08-18", 101, "Tech", "Computerworld (WARN)"},
	{"CISA", "2025-02-21", 130, "Government", "Computerworld"},
	{"Cognition", "2025-08-05", 30, "AI", "Computerworld"},
}

// Compiled from Crunchbase, Bloomberg, TechCrunch, Reuters and CNBC reports, Aug 2025 to Jan 2026.
var compiledEntries = []entry{
	{"Amazon", "2026-01-27", 16000, "Tech", "Crunchbase"},
	{"Meta", "2026-01-15", 3260, "Tech", "TechCrunch"},
	{"Google", "2026-01-22", 1200, "Tech", "Bloomberg"},
	{"Microsoft", "2026-01-10", 1900, "Tech", "CNBC"},
	{"Salesforce", "2026-01-18", 1000, "Tech", "Reuters"},
	{"SAP", "2026-01-08", 800, "Tech", "Bloomberg"},
	{"Oracle", "2026-01-20", 254, "Tech", "Crunchbase"},
	{"Pinterest", "2026-01-25", 175, "Tech", "TechCrunch"},
	{"Autodesk", "2026-01-15", 400, "Tech", "Reuters"},
	{"Expedia", "2026-01-12", 350, "Travel", "Bloomberg"},
	{"Shopify", "2026-01-22", 280, "E-commerce", "TechCrunch"},
	{"Vimeo", "2026-01-18", 130, "Tech", "Crunchbase"},
	{"Tipalti", "2026-01-14", 150, "Fintech", "TechCrunch"},

	{"Intel", "2025-12-15", 15000, "Tech", "Bloomberg"},
	{"Cisco", "2025-12-01", 5500, "Tech", "Reuters"},
	{"Amazon", "2025-12-10", 2500, "Tech", "CNBC"},
	{"Dell", "2025-12-08", 3000, "Tech", "Bloomberg"},
	{"HP", "2025-12-05", 1500, "Tech", "Reuters"},
	{"IBM", "2025-12-12", 1200, "Tech", "CNBC"},
	{"Snap", "2025-12-18", 500, "Tech", "TechCrunch"},
	{"Spotify", "2025-12-20", 600, "Tech", "Bloomberg"},

	{"Amazon", "2025-11-20", 3200, "Tech", "Bloomberg"},
	{"Microsoft", "2025-11-15", 2000, "Tech", "CNBC"},
	{"Verizon", "2025-11-10", 4600, "Telecom", "Reuters"},
	{"Cisco", "2025-11-05", 4250, "Tech", "Bloomberg"},
	{"SAP", "2025-11-08", 2000, "Tech", "Reuters"},
	{"PayPal", "2025-11-12", 1200, "Fintech", "CNBC"},
	{"Workday", "2025-11-18", 700, "Tech", "TechCrunch"},
	{"Twilio", "2025-11-22", 500, "Tech", "TechCrunch"},

	{"Intel", "2025-10-25", 8000, "Tech", "Bloomberg"},
	{"Microsoft", "2025-10-15", 1800, "Tech", "CNBC"},
	{"Dell", "2025-10-10", 2500, "Tech", "Reuters"},
	{"Qualcomm", "2025-10-20", 1500, "Tech", "Bloomberg"},
	{"AMD", "2025-10-08", 1000, "Tech", "Reuters"},
	{"Dropbox", "2025-10-05", 500, "Tech", "TechCrunch"},
	{"Lyft", "2025-10-12", 400, "Transportation", "CNBC"},
	{"Unity", "2025-10-18", 800, "Gaming", "Bloomberg"},

	{"Amazon", "2025-09-22", 2800, "Tech", "Bloomberg"},
	{"Google", "2025-09-15", 1500, "Tech", "CNBC"},
	{"Tesla", "2025-09-10", 2500, "Automotive", "Reuters"},
	{"Salesforce", "2025-09-08", 1000, "Tech", "Bloomberg"},
	{"Adobe", "2025-09-18", 800, "Tech", "TechCrunch"},
	{"Uber", "2025-09-25", 600, "Transportation", "CNBC"},
	{"Zoom", "2025-09-12", 400, "Tech", "Bloomberg"},
	{"DocuSign", "2025-09-05", 350, "Tech", "TechCrunch"},

	{"Intel", "2025-08-28", 4000, "Tech", "Bloomberg"},
	{"Cisco", "2025-08-20", 4250, "Tech", "Reuters"},
	{"Amazon", "2025-08-15", 1500, "Tech", "CNBC"},
	{"Microsoft", "2025-08-10", 1000, "Tech", "Bloomberg"},
	{"Meta", "2025-08-05", 700, "Tech", "TechCrunch"},
	{"Block", "2025-08-12", 600, "Fintech", "CNBC"},
	{"Robinhood", "2025-08-18", 400, "Fintech", "Bloomberg"},
	{"Coinbase", "2025-08-22", 350, "Crypto", "TechCrunch"},
}
