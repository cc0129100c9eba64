// Package protocol encodes and decodes panel traffic on the MQTT bus.
//
// Topic grammar, with namespace N, panel id P, button index I and
// connector C:
//
//	N/P/I/value                           button value (bool, number or string)
//	N/P/I/label                           label under a button
//	N/P/I/toplabel                        static label above a button
//	N/P/I/{click|longpress|release}       gestures reported by the panel
//	N/P/brightness/{large|mini|leds}/value  0..255
//	N/P/setpage/value                     0-based page or "next"/"prev"
//	N/P/currentpage/value                 0-based page reported by the panel
//	N/P/button_temperature/value          sensor reading in degrees Celsius
//	N/P/display/C/L/value                 line L of the display on connector C
//
// Everything here is a pure function. Fractions in 0..1 are scaled by 255
// for brightness and by 100 for button and dim values; pages are 1-based
// in memory and 0-based on the wire.
package protocol
