package vorbis

import (
	"math"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// Floor1 is a parsed floor configuration of type 1 (the only supported
// floor type; floor type 0 is rejected during parsing).
type Floor1 struct {
	PartitionClassList []int // per partition, which class configures it
	ClassDimensions     []int
	ClassSubclasses     []int
	ClassMasterbooks    []int // -1 if the class has no masterbook
	ClassSubclassBooks  [][]int // per class, per subclass slot, -1 if none
	Multiplier          int
	RangeBits           int
	XList               []int
}

// Residue is a parsed residue configuration.
type Residue struct {
	Type            ResidueType
	Begin           int
	End             int
	PartitionSize   int
	Classifications int
	Classbook       int
	Cascade         []int
	Books           [][]int // per classification, per pass (0-7), -1 if none
}

// Mapping is a parsed channel mapping configuration (type 0, the only
// mapping type Vorbis I defines).
type Mapping struct {
	Submaps          int
	MagnitudeChannel []int
	AngleChannel     []int
	Mux              []int // per audio channel, which submap it uses
	SubmapFloor      []int
	SubmapResidue    []int
}

// Mode is a parsed mode configuration.
type Mode struct {
	BlockFlag bool // true selects the long block size
	Mapping   int
}

// Setup is the fully parsed contents of a Vorbis setup header (packet
// type 5): every codebook, floor, residue, mapping, and mode the
// logical bitstream's audio packets reference.
type Setup struct {
	Codebooks []*Codebook
	TimeCount int // always present, always placeholder entries of value 0
	Floors    []*Floor1
	Residues  []*Residue
	Mappings  []*Mapping
	Modes     []*Mode
}

// ParseSetup parses a raw setup header packet, given the channel count
// declared by the identification header (needed to size mapping angle
// and magnitude channel fields).
func ParseSetup(packet []byte, audioChannels int) (*Setup, error) {
	if len(packet) < 7 {
		return nil, &HeaderMalformedError{Header: "setup", Reason: "packet too short"}
	}
	if PacketType(packet[0]) != PacketTypeSetupHdr {
		return nil, &UnexpectedPacketTypeError{Expected: PacketTypeSetupHdr, Actual: PacketType(packet[0])}
	}
	if string(packet[1:7]) != string(vorbisMagic[:]) {
		return nil, &HeaderMalformedError{Header: "setup", Reason: "missing vorbis magic"}
	}

	r := bitpack.NewReader(packet[7:])
	s := &Setup{}

	codebookCount, err := readCount(r, 8)
	if err != nil {
		return nil, err
	}
	for i := 0; i < codebookCount; i++ {
		cb, err := parseCodebook(r, i)
		if err != nil {
			return nil, err
		}
		s.Codebooks = append(s.Codebooks, cb)
	}

	timeCount, err := readCount(r, 6)
	if err != nil {
		return nil, err
	}
	s.TimeCount = timeCount
	for i := 0; i < timeCount; i++ {
		v, err := r.ReadUnsigned(16)
		if err != nil {
			return nil, err
		}
		if v != 0 {
			return nil, &HeaderMalformedError{Header: "setup", Reason: "nonzero time-domain transform placeholder"}
		}
	}

	floorCount, err := readCount(r, 6)
	if err != nil {
		return nil, err
	}
	for i := 0; i < floorCount; i++ {
		typeVal, err := r.ReadUnsigned(16)
		if err != nil {
			return nil, err
		}
		if _, err := ParseFloorType(typeVal); err != nil {
			return nil, err
		}
		floor, err := parseFloor1(r)
		if err != nil {
			return nil, err
		}
		s.Floors = append(s.Floors, floor)
	}

	residueCount, err := readCount(r, 6)
	if err != nil {
		return nil, err
	}
	for i := 0; i < residueCount; i++ {
		typeVal, err := r.ReadUnsigned(16)
		if err != nil {
			return nil, err
		}
		residueType, err := ParseResidueType(typeVal)
		if err != nil {
			return nil, err
		}
		residue, err := parseResidue(r, residueType)
		if err != nil {
			return nil, err
		}
		s.Residues = append(s.Residues, residue)
	}

	mappingCount, err := readCount(r, 6)
	if err != nil {
		return nil, err
	}
	for i := 0; i < mappingCount; i++ {
		typeVal, err := r.ReadUnsigned(16)
		if err != nil {
			return nil, err
		}
		if typeVal != 0 {
			return nil, &UnsupportedFeatureError{Feature: "mapping type != 0"}
		}
		mapping, err := parseMapping(r, audioChannels)
		if err != nil {
			return nil, err
		}
		s.Mappings = append(s.Mappings, mapping)
	}

	modeCount, err := readCount(r, 6)
	if err != nil {
		return nil, err
	}
	for i := 0; i < modeCount; i++ {
		mode, err := parseMode(r)
		if err != nil {
			return nil, err
		}
		s.Modes = append(s.Modes, mode)
	}

	framing, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}
	if !framing {
		return nil, &HeaderMalformedError{Header: "setup", Reason: "trailing framing bit clear"}
	}

	return s, nil
}

// readCount reads a width-bit count field biased by +1, the encoding
// Vorbis I uses for every "how many of these follow" field in the
// setup header.
func readCount(r *bitpack.Reader, width uint) (int, error) {
	v, err := r.ReadUnsigned(width)
	if err != nil {
		return 0, err
	}
	return int(v) + 1, nil
}

func ilog(v int) uint {
	n := uint(0)
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

func parseCodebook(r *bitpack.Reader, index int) (*Codebook, error) {
	sync, err := r.ReadUnsigned(24)
	if err != nil {
		return nil, err
	}
	if sync != 0x564342 {
		return nil, &CodebookInvalidError{Codebook: index, Reason: "bad sync pattern"}
	}
	dims, err := r.ReadUnsigned(16)
	if err != nil {
		return nil, err
	}
	entries, err := r.ReadUnsigned(24)
	if err != nil {
		return nil, err
	}
	ordered, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}

	lengths := make([]int, entries)
	if ordered {
		currentEntry := uint32(0)
		currentLengthRaw, err := r.ReadUnsigned(5)
		if err != nil {
			return nil, err
		}
		currentLength := int(currentLengthRaw) + 1
		for currentEntry < entries {
			width := ilog(int(entries - currentEntry))
			number, err := r.ReadUnsigned(width)
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < number; i++ {
				lengths[currentEntry+i] = currentLength
			}
			currentEntry += number
			currentLength++
		}
	} else {
		sparse, err := r.ReadFlag()
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < entries; i++ {
			if sparse {
				present, err := r.ReadFlag()
				if err != nil {
					return nil, err
				}
				if !present {
					continue
				}
			}
			lenRaw, err := r.ReadUnsigned(5)
			if err != nil {
				return nil, err
			}
			lengths[i] = int(lenRaw) + 1
		}
	}

	lookupTypeVal, err := r.ReadUnsigned(4)
	if err != nil {
		return nil, err
	}
	lookupType, err := ParseVectorLookupType(lookupTypeVal)
	if err != nil {
		return nil, err
	}

	var lookup LookupTable
	if lookupType != LookupNone {
		lookup.Present = true
		lookup.Minimum, err = r.ReadUnsigned(32)
		if err != nil {
			return nil, err
		}
		lookup.Delta, err = r.ReadUnsigned(32)
		if err != nil {
			return nil, err
		}
		valueBitsRaw, err := r.ReadUnsigned(4)
		if err != nil {
			return nil, err
		}
		lookup.ValueBits = uint(valueBitsRaw) + 1
		lookup.SequenceP, err = r.ReadFlag()
		if err != nil {
			return nil, err
		}

		var lookupValues int
		if lookupType == LookupImplicitlyPopulated {
			lookupValues = lookup1Values(int(entries), int(dims))
		} else {
			lookupValues = int(entries) * int(dims)
		}
		lookup.Multiplicands = make([]uint32, lookupValues)
		for i := range lookup.Multiplicands {
			v, err := r.ReadUnsigned(lookup.ValueBits)
			if err != nil {
				return nil, err
			}
			lookup.Multiplicands[i] = v
		}
	}

	return NewCodebook(index, int(dims), lengths, lookupType, lookup)
}

// lookup1Values implements Vorbis I's get_quantvals formula for
// implicitly-populated (lookup type 1) VQ tables: the largest integer
// n such that n^dimensions does not exceed entries.
func lookup1Values(entries, dimensions int) int {
	if dimensions <= 0 {
		return 0
	}
	n := int(math.Floor(math.Exp(math.Log(float64(entries)) / float64(dimensions))))
	for pow(n+1, dimensions) <= entries {
		n++
	}
	return n
}

func pow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func parseFloor1(r *bitpack.Reader) (*Floor1, error) {
	partitionsRaw, err := r.ReadUnsigned(5)
	if err != nil {
		return nil, err
	}
	partitions := int(partitionsRaw)

	classList := make([]int, partitions)
	maxClass := -1
	for i := range classList {
		v, err := r.ReadUnsigned(4)
		if err != nil {
			return nil, err
		}
		classList[i] = int(v)
		if classList[i] > maxClass {
			maxClass = classList[i]
		}
	}

	f := &Floor1{PartitionClassList: classList}
	classCount := maxClass + 1
	f.ClassDimensions = make([]int, classCount)
	f.ClassSubclasses = make([]int, classCount)
	f.ClassMasterbooks = make([]int, classCount)
	f.ClassSubclassBooks = make([][]int, classCount)

	for i := 0; i < classCount; i++ {
		dimRaw, err := r.ReadUnsigned(3)
		if err != nil {
			return nil, err
		}
		f.ClassDimensions[i] = int(dimRaw) + 1

		subRaw, err := r.ReadUnsigned(2)
		if err != nil {
			return nil, err
		}
		f.ClassSubclasses[i] = int(subRaw)

		f.ClassMasterbooks[i] = -1
		if f.ClassSubclasses[i] != 0 {
			mb, err := r.ReadUnsigned(8)
			if err != nil {
				return nil, err
			}
			f.ClassMasterbooks[i] = int(mb)
		}

		books := make([]int, 1<<uint(f.ClassSubclasses[i]))
		for j := range books {
			v, err := r.ReadUnsigned(8)
			if err != nil {
				return nil, err
			}
			books[j] = int(v) - 1
		}
		f.ClassSubclassBooks[i] = books
	}

	multRaw, err := r.ReadUnsigned(2)
	if err != nil {
		return nil, err
	}
	f.Multiplier = int(multRaw) + 1

	rangeBitsRaw, err := r.ReadUnsigned(4)
	if err != nil {
		return nil, err
	}
	f.RangeBits = int(rangeBitsRaw)

	f.XList = []int{0, 1 << uint(f.RangeBits)}
	for _, class := range classList {
		for j := 0; j < f.ClassDimensions[class]; j++ {
			v, err := r.ReadUnsigned(uint(f.RangeBits))
			if err != nil {
				return nil, err
			}
			f.XList = append(f.XList, int(v))
		}
	}

	return f, nil
}

func parseResidue(r *bitpack.Reader, residueType ResidueType) (*Residue, error) {
	res := &Residue{Type: residueType}
	v, err := r.ReadUnsigned(24)
	if err != nil {
		return nil, err
	}
	res.Begin = int(v)
	v, err = r.ReadUnsigned(24)
	if err != nil {
		return nil, err
	}
	res.End = int(v)
	v, err = r.ReadUnsigned(24)
	if err != nil {
		return nil, err
	}
	res.PartitionSize = int(v) + 1
	v, err = r.ReadUnsigned(6)
	if err != nil {
		return nil, err
	}
	res.Classifications = int(v) + 1
	v, err = r.ReadUnsigned(8)
	if err != nil {
		return nil, err
	}
	res.Classbook = int(v)

	res.Cascade = make([]int, res.Classifications)
	for i := range res.Cascade {
		lowRaw, err := r.ReadUnsigned(3)
		if err != nil {
			return nil, err
		}
		flag, err := r.ReadFlag()
		if err != nil {
			return nil, err
		}
		high := 0
		if flag {
			highRaw, err := r.ReadUnsigned(5)
			if err != nil {
				return nil, err
			}
			high = int(highRaw)
		}
		res.Cascade[i] = high*8 + int(lowRaw)
	}

	res.Books = make([][]int, res.Classifications)
	for i := range res.Books {
		passes := make([]int, 8)
		for j := 0; j < 8; j++ {
			passes[j] = -1
			if res.Cascade[i]&(1<<uint(j)) != 0 {
				v, err := r.ReadUnsigned(8)
				if err != nil {
					return nil, err
				}
				passes[j] = int(v)
			}
		}
		res.Books[i] = passes
	}

	return res, nil
}

func parseMapping(r *bitpack.Reader, audioChannels int) (*Mapping, error) {
	m := &Mapping{Submaps: 1}
	flag, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}
	if flag {
		v, err := r.ReadUnsigned(4)
		if err != nil {
			return nil, err
		}
		m.Submaps = int(v) + 1
	}

	squarePolar, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}
	if squarePolar {
		stepsRaw, err := r.ReadUnsigned(8)
		if err != nil {
			return nil, err
		}
		steps := int(stepsRaw) + 1
		width := ilog(audioChannels - 1)
		m.MagnitudeChannel = make([]int, steps)
		m.AngleChannel = make([]int, steps)
		for i := 0; i < steps; i++ {
			mv, err := r.ReadUnsigned(width)
			if err != nil {
				return nil, err
			}
			av, err := r.ReadUnsigned(width)
			if err != nil {
				return nil, err
			}
			m.MagnitudeChannel[i] = int(mv)
			m.AngleChannel[i] = int(av)
			if m.MagnitudeChannel[i] == m.AngleChannel[i] ||
				m.MagnitudeChannel[i] >= audioChannels || m.AngleChannel[i] >= audioChannels {
				return nil, &InvalidChannelMappingError{
					MagnitudeChannel: m.MagnitudeChannel[i],
					AngleChannel:     m.AngleChannel[i],
					AudioChannels:    audioChannels,
				}
			}
		}
	}

	reserved, err := r.ReadUnsigned(2)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, &HeaderMalformedError{Header: "setup", Reason: "nonzero mapping reserved field"}
	}

	m.Mux = make([]int, audioChannels)
	if m.Submaps > 1 {
		for i := 0; i < audioChannels; i++ {
			v, err := r.ReadUnsigned(4)
			if err != nil {
				return nil, err
			}
			m.Mux[i] = int(v)
		}
	}

	m.SubmapFloor = make([]int, m.Submaps)
	m.SubmapResidue = make([]int, m.Submaps)
	for i := 0; i < m.Submaps; i++ {
		if _, err := r.ReadUnsigned(8); err != nil { // time config placeholder, discarded
			return nil, err
		}
		fv, err := r.ReadUnsigned(8)
		if err != nil {
			return nil, err
		}
		rv, err := r.ReadUnsigned(8)
		if err != nil {
			return nil, err
		}
		m.SubmapFloor[i] = int(fv)
		m.SubmapResidue[i] = int(rv)
	}

	return m, nil
}

func parseMode(r *bitpack.Reader) (*Mode, error) {
	blockFlag, err := r.ReadFlag()
	if err != nil {
		return nil, err
	}
	windowType, err := r.ReadUnsigned(16)
	if err != nil {
		return nil, err
	}
	if windowType != 0 {
		return nil, &UnsupportedFeatureError{Feature: "window type != 0"}
	}
	transformType, err := r.ReadUnsigned(16)
	if err != nil {
		return nil, err
	}
	if transformType != 0 {
		return nil, &UnsupportedFeatureError{Feature: "transform type != 0"}
	}
	mapping, err := r.ReadUnsigned(8)
	if err != nil {
		return nil, err
	}
	return &Mode{BlockFlag: blockFlag, Mapping: int(mapping)}, nil
}
