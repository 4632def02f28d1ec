package domain

// ContactNotation scores how complete the contacts linked to an invoice are,
// from 0 to 100: the share of email, phone and address fields filled across
// all linked contacts. An invoice without contacts scores 0.
func ContactNotation(contacts []Contact) int {
	if len(contacts) == 0 {
		return 0
	}
	filled := 0
	for _, c := range contacts {
		for _, v := range []string{c.Email, c.Phone, c.Address} {
			if v != "" {
				filled++
			}
		}
	}
	return filled * 100 / (len(contacts) * 3)
}
