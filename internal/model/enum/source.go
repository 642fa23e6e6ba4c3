package enum

// Source identifies which market-data feed produced a value.
type Source uint8

const (
	_source_beg Source = iota
	SourceBTCC
	SourceBinance
	_source_end
)

func (s Source) IsAvailable() bool {
	return s > _source_beg && s < _source_end
}

func (s Source) String() string {
	switch s {
	case SourceBTCC:
		return "btcc"
	case SourceBinance:
		return "binance"
	default:
		return "unknown"
	}
}
