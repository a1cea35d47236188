package famiscope

import (
	"fmt"
	"strings"
)

// ChannelType identifies which sound generator of the 2A03 a channel drives.
type ChannelType int

const (
	Square1 ChannelType = iota
	Square2
	Triangle
	Noise
	DPCM
	NumChannelTypes
)

var channelTypeNames = [NumChannelTypes]string{"square1", "square2", "triangle", "noise", "dpcm"}

var channelDisplayNames = [NumChannelTypes]string{"square 1", "square 2", "triangle", "noise", "DPCM"}

func (t ChannelType) String() string {
	if t < 0 || t >= NumChannelTypes {
		return fmt.Sprintf("ChannelType(%d)", int(t))
	}
	return channelTypeNames[t]
}

// DisplayName is the human readable name of the channel type, lowercase
// except for acronyms; callers title case it for display.
func (t ChannelType) DisplayName() string {
	if t < 0 || t >= NumChannelTypes {
		return t.String()
	}
	return channelDisplayNames[t]
}

func (t ChannelType) MarshalText() ([]byte, error) {
	if t < 0 || t >= NumChannelTypes {
		return nil, fmt.Errorf("invalid channel type %d", int(t))
	}
	return []byte(channelTypeNames[t]), nil
}

func (t *ChannelType) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range channelTypeNames {
		if s == name {
			*t = ChannelType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown channel type %q", text)
}
