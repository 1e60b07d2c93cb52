// Package mncodec turns a secret message into the digit-pair payload that the
// carrier strategies hide inside cover text.
//
// Each character is written as a base-8 token, a terminator token for the
// end-of-text control character (code point 3) is appended, and every token
// is pushed through a fixed quadratic transform that yields two integers M
// and N in [0, 20]. The pair is rendered as four decimal digits (MMNN).
//
// The token's octal digits are read back as a decimal literal before the
// transform ("110" becomes one hundred and ten). Output of this package must
// stay bit-for-bit stable: changing that reading, or any of the floor and
// modulo conventions in calculatePair, changes every payload ever produced.
//
// The mapping is many-to-one. BuildTable documents the collisions for the
// ASCII range and can export them as CSV.
package mncodec
