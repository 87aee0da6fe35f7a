package idl

import "github.com/carp-rpc/carp/internal/carperr"

func typeModelErrf(format string, args ...any) error {
	return carperr.New(carperr.TypeModel, format, args...)
}

func nameResolutionErrf(format string, args ...any) error {
	return carperr.New(carperr.NameResolution, format, args...)
}

func codecDecodingErrf(format string, args ...any) error {
	return carperr.New(carperr.CodecDecoding, format, args...)
}
