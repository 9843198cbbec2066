// Package data embeds the question banks and traffic-sign catalogue shipped
// with the server.
package data

import _ "embed"

// TextAnswerBank holds category A, B and K questions whose answer is stored
// as the text of the correct choice.
//
//go:embed ak.json
var TextAnswerBank []byte

// TrafficBank holds image-based traffic-sign questions, text-answer shape.
//
//go:embed trafficqn.json
var TrafficBank []byte

// IndexedBank holds questions whose answer is stored as a choice index.
//
//go:embed indexed.json
var IndexedBank []byte

//go:embed traffic_signs.json
var TrafficSigns []byte
