package extract

import "google.golang.org/genai"

const prompt = `You are an expert data entry specialist for a logistics company. Analyze the provided image of a ledger. Extract all the data from the table, row by row. Ignore the header row and any empty rows at the bottom. The language in the image is Urdu/Persian. Map the columns to the specified English keys in the JSON schema. For any empty cells in the image, use 0 for numbers and an empty string for text. Parse dates like '13-Jul-25' into '2025-07-13'. The 'weight' column might contain a range like '20-25'; in that case, use the first number (20). Ensure the output is a valid JSON array matching the provided schema.`

type column struct {
	key         string
	typ         genai.Type
	description string
}

// columns maps ledger columns to trip fields, in sheet order.
var columns = []column{
	{"driverNumber", genai.TypeString, "Driver's phone number, might be in the second column."},
	{"date", genai.TypeString, "Trip date in YYYY-MM-DD format. Example: 13-Jul-25 becomes 2025-07-13."},
	{"vehicleNumber", genai.TypeString, ""},
	{"vehicleSize", genai.TypeString, ""},
	{"weight", genai.TypeNumber, "Weight in tons. If a range is given (e.g., 20-25), use the first number."},
	{"freight", genai.TypeNumber, "From 'کرایہ بلٹی' column."},
	{"officeFare", genai.TypeNumber, "From 'دفتر کرایہ' column."},
	{"vehicleReceivedBilty", genai.TypeNumber, "From 'گاڑی وصول بلٹ' column."},
	{"vehicleFare", genai.TypeNumber, "From 'گاڑی کرایہ' column."},
	{"laborCharges", genai.TypeNumber, "From 'مزدوری' column. Default to 0 if empty."},
	{"exciseCharges", genai.TypeNumber, "From 'ایکسائز' column. Default to 0 if empty."},
	{"bonus", genai.TypeNumber, "From 'انعام' column. Default to 0 if empty."},
	{"miscExpenses", genai.TypeNumber, "From 'دیگر' column (the one after bonus). Default to 0 if empty."},
	{"dailyWages", genai.TypeNumber, "From 'دیہاڑی' column. Default to 0 if empty."},
	{"extraWeight", genai.TypeNumber, "From 'فالتو وزن' column. Default to 0 if empty."},
	{"partyBalance", genai.TypeNumber, "From 'پارٹی بیلنس' column."},
	{"partyReceived", genai.TypeNumber, "From 'پارٹی وصول' column."},
	{"brokerageCommission", genai.TypeNumber, "From 'بروکری + نشانہ' column."},
	{"vehicleBalance", genai.TypeNumber, "From 'گاڑی بیلنس' column."},
	{"vehicleAccount", genai.TypeString, "From 'گاڑی حساب' column."},
	{"additionalDetails", genai.TypeString, "From 'دیگرتفصیل' column."},
	{"station", genai.TypeString, "From 'اسٹیشن' column."},
	{"brokerName", genai.TypeString, "From 'اڈا بروکر' column."},
	{"partyName", genai.TypeString, "From 'پارٹی نام' column."},
	{"mt", genai.TypeNumber, "From 'MT' column. Default to 0 if empty."},
}

// responseSchema asks for an array of ledger rows.
func responseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(columns))
	order := make([]string, 0, len(columns))
	for _, c := range columns {
		props[c.key] = &genai.Schema{Type: c.typ, Description: c.description}
		order = append(order, c.key)
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type:             genai.TypeObject,
			Properties:       props,
			PropertyOrdering: order,
		},
	}
}
