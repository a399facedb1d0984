package service

import "strings"

// NormalizePhone converts Kenyan mobile numbers to the 2547XXXXXXXX / 2541XXXXXXXX
// form M-Pesa expects.
func NormalizePhone(raw string) (string, error) {
	phone := strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))

	switch {
	case len(phone) == 10 && phone[0] == '0':
		phone = "254" + phone[1:]
	case len(phone) == 9 && (phone[0] == '7' || phone[0] == '1'):
		phone = "254" + phone
	}

	if len(phone) != 12 || !strings.HasPrefix(phone, "254") || (phone[3] != '7' && phone[3] != '1') {
		return "", ErrInvalidPhone
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}
	return phone, nil
}
