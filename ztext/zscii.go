package ztext

import "github.com/davetcode/goz/zmemory"

// DefaultUnicodeTranslationTable is the standard ZSCII-to-Unicode mapping
// for codes 155-223, used when a story doesn't supply its own via the
// header extension table.
var DefaultUnicodeTranslationTable = map[uint8]rune{
	155: 'ä', 156: 'ö', 157: 'ü', 158: 'Ä', 159: 'Ö',
	160: 'Ü', 161: 'ß', 162: '»', 163: '«', 164: 'ë',
	165: 'ï', 166: 'ÿ', 167: 'Ë', 168: 'Ï', 169: 'á',
	170: 'é', 171: 'í', 172: 'ó', 173: 'ú', 174: 'ý',
	175: 'Á', 176: 'É', 177: 'Í', 178: 'Ó', 179: 'Ú',
	180: 'Ý', 181: 'à', 182: 'è', 183: 'ì', 184: 'ò',
	185: 'ù', 186: 'À', 187: 'È', 188: 'Ì', 189: 'Ò',
	190: 'Ù', 191: 'â', 192: 'ê', 193: 'î', 194: 'ô',
	195: 'û', 196: 'Â', 197: 'Ê', 198: 'Î', 199: 'Ô',
	200: 'Û', 201: 'å', 202: 'Å', 203: 'ø', 204: 'Ø',
	205: 'ã', 206: 'ñ', 207: 'õ', 208: 'Ã', 209: 'Ñ',
	210: 'Õ', 211: 'æ', 212: 'Æ', 213: 'ç', 214: 'Ç',
	215: 'þ', 216: 'ð', 217: 'Þ', 218: 'Ð', 219: '£',
	220: 'œ', 221: 'Œ', 222: '¡', 223: '¿',
}

// headerExtUnicodeTableEntry is the 1-based index of the Unicode
// translation table pointer within the v5+ header extension table.
const headerExtUnicodeTableEntry = 3

// unicodeTranslationTable returns the active ZSCII->Unicode map, parsing
// the story's custom table from the header extension table when present.
func unicodeTranslationTable(mem *zmemory.Memory) map[uint8]rune {
	if mem.Version < 5 || mem.HeaderExtBase == 0 {
		return DefaultUnicodeTranslationTable
	}
	entries, err := mem.ReadWord(uint32(mem.HeaderExtBase))
	if err != nil || entries < headerExtUnicodeTableEntry {
		return DefaultUnicodeTranslationTable
	}
	tableAddr, err := mem.ReadWord(uint32(mem.HeaderExtBase) + 2*headerExtUnicodeTableEntry)
	if err != nil || tableAddr == 0 {
		return DefaultUnicodeTranslationTable
	}

	count, err := mem.ReadByte(uint32(tableAddr))
	if err != nil {
		return DefaultUnicodeTranslationTable
	}
	result := make(map[uint8]rune, count)
	for i := 0; i < int(count); i++ {
		r, err := mem.ReadWord(uint32(tableAddr) + 1 + 2*uint32(i))
		if err != nil {
			break
		}
		result[uint8(155+i)] = rune(r)
	}
	return result
}

// ZsciiToUnicode translates a single extended ZSCII code (> 127) to its
// Unicode rune.
func ZsciiToUnicode(mem *zmemory.Memory, zscii uint8) (rune, bool) {
	if zscii >= 32 && zscii <= 126 {
		return rune(zscii), true
	}
	r, ok := unicodeTranslationTable(mem)[zscii]
	return r, ok
}

// UnicodeToZscii translates a Unicode rune to its ZSCII code, for input
// and dictionary encoding.
func UnicodeToZscii(mem *zmemory.Memory, r rune) (uint8, bool) {
	if r >= 32 && r <= 126 {
		return uint8(r), true
	}
	for zscii, ur := range unicodeTranslationTable(mem) {
		if ur == r {
			return zscii, true
		}
	}
	return 0, false
}
