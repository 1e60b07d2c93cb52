package mncodec_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"stegtext/internal/mncodec"
	"stegtext/internal/services"
)

// asciiPairs holds the reference pair for every octal token of code points 0-127.
var asciiPairs = map[string]string{
	"0": "1915", "1": "0502", "2": "0803", "3": "0409", "4": "0713", "5": "1008", "6": "0601", "7": "0920",
	"10": "1102", "11": "1406", "12": "0813", "13": "1105", "14": "1409", "15": "1018", "16": "1304", "17": "1602",
	"20": "1605", "21": "1201", "22": "1502", "23": "1815", "24": "1204", "25": "1505", "26": "1818", "27": "1207",
	"30": "1404", "31": "1720", "32": "2006", "33": "1407", "34": "1702", "35": "2009", "36": "1600", "37": "1910",
	"40": "1913", "41": "0114", "42": "1606", "43": "1916", "44": "0117", "45": "1816", "46": "0020", "47": "0315",
	"50": "0318", "51": "1801", "52": "0005", "53": "0300", "54": "1804", "55": "0205", "56": "0515", "57": "2010",
	"60": "2013", "61": "0211", "62": "0500", "63": "2016", "64": "0214", "65": "0503", "66": "0118", "67": "0410",
	"70": "0413", "71": "0717", "72": "0103", "73": "0416", "74": "0720", "75": "0106", "76": "0419", "77": "0702",
	"100": "0817", "101": "1109", "102": "0519", "103": "0820", "104": "1112", "105": "0709", "106": "1004", "107": "1311",
	"110": "1314", "111": "0715", "112": "1010", "113": "1317", "114": "0718", "115": "1013", "116": "1320", "117": "0700",
	"120": "0907", "121": "1217", "122": "1518", "123": "0910", "124": "1220", "125": "1500", "126": "0913", "127": "1202",
	"130": "1205", "131": "1506", "132": "0919", "133": "1208", "134": "1509", "135": "0901", "136": "1405", "137": "1700",
	"140": "1703", "141": "1107", "142": "1411", "143": "1706", "144": "1110", "145": "1414", "146": "1709", "147": "1113",
	"150": "1116", "151": "1420", "152": "1715", "153": "1315", "154": "1613", "155": "1902", "156": "1318", "157": "1616",
	"160": "1619", "161": "1908", "162": "1303", "163": "1601", "164": "1911", "165": "1306", "166": "1604", "167": "1914",
	"170": "1917", "171": "1504", "172": "1817", "173": "0000", "174": "1507", "175": "1820", "176": "0003", "177": "1510",
}

func TestPairFromTokenMatchesReferenceTable(t *testing.T) {
	if len(asciiPairs) != mncodec.TableRange {
		t.Fatalf("reference table has %d entries, want %d", len(asciiPairs), mncodec.TableRange)
	}
	for token, want := range asciiPairs {
		pair, err := mncodec.PairFromToken(token)
		if err != nil {
			t.Fatalf("PairFromToken(%q) returned error: %v", token, err)
		}
		if got := pair.String(); got != want {
			t.Errorf("PairFromToken(%q) = %s, want %s", token, got, want)
		}
		if pair.M < 0 || pair.M >= mncodec.Modulus || pair.N < 0 || pair.N >= mncodec.Modulus {
			t.Errorf("PairFromToken(%q) out of range: %+v", token, pair)
		}
	}
}

func TestSingleOctalDigitsNeverFail(t *testing.T) {
	for digit := 0; digit <= 7; digit++ {
		if _, err := mncodec.PairFromToken(strconv.Itoa(digit)); err != nil {
			t.Fatalf("token %d: unexpected error %v", digit, err)
		}
	}
}

func TestEncodeHi(t *testing.T) {
	enc, err := mncodec.Encode("Hi")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	wantTokens := []string{"110", "151", "3"}
	if strings.Join(enc.Tokens, ",") != strings.Join(wantTokens, ",") {
		t.Fatalf("unexpected tokens: got %v want %v", enc.Tokens, wantTokens)
	}
	wantPairs := []string{"1314", "1420", "0409"}
	if strings.Join(enc.Pairs, ",") != strings.Join(wantPairs, ",") {
		t.Fatalf("unexpected pairs: got %v want %v", enc.Pairs, wantPairs)
	}
	if payload := enc.Payload(); payload != "131414200409" || len(payload) != 12 {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestEncodeLengthAndDeterminism(t *testing.T) {
	secrets := []string{"a", "Geluk", "Fietspad", "Samenwerking", "naïve café", "emoji 😀"}
	for _, secret := range secrets {
		first, err := mncodec.EncodeSecret(secret)
		if err != nil {
			t.Fatalf("EncodeSecret(%q): %v", secret, err)
		}
		if want := len([]rune(secret)) + 1; len(first) != want {
			t.Fatalf("EncodeSecret(%q) length %d, want %d", secret, len(first), want)
		}
		second, err := mncodec.EncodeSecret(secret)
		if err != nil {
			t.Fatalf("EncodeSecret(%q) second call: %v", secret, err)
		}
		if strings.Join(first, "") != strings.Join(second, "") {
			t.Fatalf("EncodeSecret(%q) not deterministic: %v vs %v", secret, first, second)
		}
		for _, pair := range first {
			if len(pair) != mncodec.PairWidth {
				t.Fatalf("pair %q is not %d digits", pair, mncodec.PairWidth)
			}
		}
		if first[len(first)-1] != "0409" {
			t.Fatalf("expected terminator pair 0409, got %s", first[len(first)-1])
		}
	}
}

func TestEncodeNonASCII(t *testing.T) {
	cases := map[string]string{
		"é": "1018",
		"€": "0416",
		"😀": "0707",
	}
	for secret, want := range cases {
		pairs, err := mncodec.EncodeSecret(secret)
		if err != nil {
			t.Fatalf("EncodeSecret(%q): %v", secret, err)
		}
		if pairs[0] != want {
			t.Fatalf("EncodeSecret(%q)[0] = %s, want %s", secret, pairs[0], want)
		}
	}
}

func TestPairFromTokenRejectsGarbage(t *testing.T) {
	_, err := mncodec.PairFromToken("1x")
	if err == nil {
		t.Fatal("expected error for non-numeric token")
	}
	if !errors.Is(err, services.ErrMalformedTransformInput) {
		t.Fatalf("expected malformed input marker, got %v", err)
	}
}

func TestPairFromTokenRejectsNegativeDiscriminant(t *testing.T) {
	// -1 gives c = 2 and a discriminant of 1 - 8 = -7.
	_, err := mncodec.PairFromToken("-1")
	if !errors.Is(err, services.ErrMalformedTransformInput) {
		t.Fatalf("expected malformed input marker, got %v", err)
	}
	if _, err := mncodec.Encode("ok"); err != nil {
		t.Fatalf("valid secret must still encode: %v", err)
	}
}
