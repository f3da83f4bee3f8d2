package inflate

const (
	maxLitCodes   = 286
	maxDistCodes  = 30
	numCodeLens   = 19
	fixedLitCodes = 288
	endOfBlock    = 256
)

// Block types, as carried in the two BTYPE header bits.
const (
	blockStored = iota
	blockFixed
	blockDynamic
	blockReserved
)

// codeLenOrder is the order in which code length code lengths are sent.
var codeLenOrder = [numCodeLens]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// Base lengths and extra bits for length symbols 257..285.
var (
	lengthBase = [29]int{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
		15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
		67, 83, 99, 115, 131, 163, 195, 227, 258,
	}
	lengthExtra = [29]uint{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
		1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
		4, 4, 4, 4, 5, 5, 5, 5, 0,
	}
)

// Base distances and extra bits for distance symbols 0..29.
var (
	distBase = [30]int{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
		33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
		1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
	}
	distExtra = [30]uint{
		0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
		4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
		9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
	}
)

// fixedLitLengths returns the literal/length code lengths of a fixed block.
func fixedLitLengths() []int {
	lengths := make([]int, fixedLitCodes)

	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}

	return lengths
}

// fixedDistLengths returns the distance code lengths of a fixed block.
func fixedDistLengths() []int {
	lengths := make([]int, maxDistCodes)
	for i := range lengths {
		lengths[i] = 5
	}

	return lengths
}
