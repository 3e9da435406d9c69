package mp4io

// LanguageUndetermined is the ISO-639-2 code for "undetermined", packed as 0x55C4.
const LanguageUndetermined = "und"

// DecodeLanguage unpacks three 5-bit letters stored as offsets from 'a'-1.
// The leading pad bit is ignored.
func DecodeLanguage(code uint16) string {
	return string([]byte{
		byte(code>>10&0x1f) + 0x60,
		byte(code>>5&0x1f) + 0x60,
		byte(code&0x1f) + 0x60,
	})
}

// EncodeLanguage packs a three letter lowercase code.
func EncodeLanguage(lang string) (uint16, error) {
	if len(lang) != 3 {
		return 0, &FieldEncodingError{Field: "language", Value: lang, Reason: "need exactly three letters"}
	}
	var code uint16
	for i := 0; i < 3; i++ {
		c := lang[i]
		if c < 'a' || c > 'z' {
			return 0, &FieldEncodingError{Field: "language", Value: lang, Reason: "letters must be lowercase a-z"}
		}
		code = code<<5 | uint16(c-0x60)
	}
	return code, nil
}
