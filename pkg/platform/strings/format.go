package strings

// FormatCPF renders an 11-digit CPF as 000.000.000-00.
// Input of any other digit length is returned unchanged.
func FormatCPF(s string) string {
	d := OnlyDigits(s)
	if len(d) != 11 {
		return s
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// FormatCNPJ renders a 14-digit CNPJ as 00.000.000/0000-00.
func FormatCNPJ(s string) string {
	d := OnlyDigits(s)
	if len(d) != 14 {
		return s
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// FormatCEP renders an 8-digit CEP as 00000-000.
func FormatCEP(s string) string {
	d := OnlyDigits(s)
	if len(d) != 8 {
		return s
	}
	return d[0:5] + "-" + d[5:8]
}

// FormatPhone renders a Brazilian phone number with or without DDD:
//
//	8 digits  3333-4444
//	9 digits  93333-4444
//	10 digits (11) 3333-4444
//	11 digits (11) 93333-4444
func FormatPhone(s string) string {
	d := OnlyDigits(s)
	switch len(d) {
	case 8:
		return d[0:4] + "-" + d[4:]
	case 9:
		return d[0:5] + "-" + d[5:]
	case 10:
		return "(" + d[0:2] + ") " + d[2:6] + "-" + d[6:]
	case 11:
		return "(" + d[0:2] + ") " + d[2:7] + "-" + d[7:]
	default:
		return s
	}
}
