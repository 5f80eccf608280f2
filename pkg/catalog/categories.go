package catalog

// CrimeCategory classifies a reported incident.
type CrimeCategory string

const (
	CategoryFinancialFraud      CrimeCategory = "financial_fraud"
	CategoryIdentityTheft       CrimeCategory = "identity_theft"
	CategoryCyberbullying       CrimeCategory = "cyberbullying"
	CategoryDataBreach          CrimeCategory = "data_breach"
	CategoryMalware             CrimeCategory = "malware"
	CategoryPhishing            CrimeCategory = "phishing"
	CategoryRansomware          CrimeCategory = "ransomware"
	CategoryHacking             CrimeCategory = "hacking"
	CategoryOnlineHarassment    CrimeCategory = "online_harassment"
	CategoryCryptocurrencyFraud CrimeCategory = "cryptocurrency_fraud"
	CategorySocialEngineering   CrimeCategory = "social_engineering"
	CategoryOther               CrimeCategory = "other"
)

// CategoryInfo describes a category and its fixed set of sub-categories.
type CategoryInfo struct {
	Label         string
	Description   string
	Subcategories []string
}

var categoryOrder = []CrimeCategory{
	CategoryFinancialFraud,
	CategoryIdentityTheft,
	CategoryCyberbullying,
	CategoryDataBreach,
	CategoryMalware,
	CategoryPhishing,
	CategoryRansomware,
	CategoryHacking,
	CategoryOnlineHarassment,
	CategoryCryptocurrencyFraud,
	CategorySocialEngineering,
	CategoryOther,
}

var categories = map[CrimeCategory]CategoryInfo{
	CategoryFinancialFraud: {
		Label:         "Financial Fraud",
		Description:   "Credit card fraud, banking fraud, investment scams",
		Subcategories: []string{"Credit Card Fraud", "Banking Fraud", "Investment Scam", "Cryptocurrency Fraud", "Wire Transfer Fraud"},
	},
	CategoryIdentityTheft: {
		Label:         "Identity Theft",
		Description:   "Unauthorized use of personal information",
		Subcategories: []string{"Social Security Fraud", "Medical Identity Theft", "Tax Identity Theft", "Account Takeover", "Synthetic Identity"},
	},
	CategoryCyberbullying: {
		Label:         "Cyberbullying",
		Description:   "Online harassment, threats, intimidation",
		Subcategories: []string{"Social Media Harassment", "Online Stalking", "Doxxing", "Revenge Porn", "Cyberstalking"},
	},
	CategoryDataBreach: {
		Label:         "Data Breach",
		Description:   "Unauthorized access to sensitive data",
		Subcategories: []string{"Personal Data Breach", "Corporate Data Breach", "Healthcare Data Breach", "Government Data Breach", "Academic Data Breach"},
	},
	CategoryMalware: {
		Label:         "Malware",
		Description:   "Malicious software attacks",
		Subcategories: []string{"Virus", "Trojan", "Spyware", "Adware", "Rootkit", "Keylogger"},
	},
	CategoryPhishing: {
		Label:         "Phishing",
		Description:   "Fraudulent attempts to obtain sensitive information",
		Subcategories: []string{"Email Phishing", "SMS Phishing (Smishing)", "Voice Phishing (Vishing)", "Website Phishing", "Social Media Phishing"},
	},
	CategoryRansomware: {
		Label:         "Ransomware",
		Description:   "Malicious software that encrypts data for ransom",
		Subcategories: []string{"File Encryption", "Database Encryption", "System Lockout", "Double Extortion", "Ransomware-as-a-Service"},
	},
	CategoryHacking: {
		Label:         "Hacking",
		Description:   "Unauthorized access to computer systems",
		Subcategories: []string{"Network Intrusion", "System Compromise", "Website Defacement", "DDoS Attack", "SQL Injection", "Cross-Site Scripting"},
	},
	CategoryOnlineHarassment: {
		Label:         "Online Harassment",
		Description:   "Persistent unwanted digital communication",
		Subcategories: []string{"Threatening Messages", "Hate Speech", "Sexual Harassment", "Workplace Harassment", "Gaming Harassment"},
	},
	CategoryCryptocurrencyFraud: {
		Label:         "Cryptocurrency Fraud",
		Description:   "Fraudulent cryptocurrency-related activities",
		Subcategories: []string{"Crypto Investment Scam", "Fake ICO", "Wallet Theft", "Mining Scam", "Exchange Fraud"},
	},
	CategorySocialEngineering: {
		Label:         "Social Engineering",
		Description:   "Psychological manipulation for information gathering",
		Subcategories: []string{"Pretexting", "Baiting", "Quid Pro Quo", "Business Email Compromise", "Romance Scam"},
	},
	CategoryOther: {
		Label:         "Other",
		Description:   "Other types of cybercrime not listed above",
		Subcategories: []string{"Online Fraud", "Digital Piracy", "Cyber Espionage", "Cyber Terrorism", "Internet Gambling Fraud"},
	},
}

// Categories returns every category in display order.
func Categories() []CrimeCategory {
	out := make([]CrimeCategory, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Valid reports whether c is one of the enumerated categories.
func (c CrimeCategory) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Info returns the label, description and a copy of the sub-category list.
func (c CrimeCategory) Info() (CategoryInfo, bool) {
	info, ok := categories[c]
	if !ok {
		return CategoryInfo{}, false
	}
	subs := make([]string, len(info.Subcategories))
	copy(subs, info.Subcategories)
	info.Subcategories = subs
	return info, true
}

// HasSubcategory reports whether sub belongs to the fixed set of c.
// Matching is exact: sub-categories are stored as displayed.
func (c CrimeCategory) HasSubcategory(sub string) bool {
	info, ok := categories[c]
	if !ok {
		return false
	}
	for _, s := range info.Subcategories {
		if s == sub {
			return true
		}
	}
	return false
}
