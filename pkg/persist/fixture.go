package persist

import (
	"fmt"

	"github.com/Sumatoshi-tech/dsmaint/pkg/record"
)

// Fixture is the on-disk shape of a record fixture file.
type Fixture struct {
	Records []record.Record `json:"records" yaml:"records"`
}

// LoadRecords reads a fixture file, choosing the codec from its name.
// Records without a kind default to exploration records.
func LoadRecords(path string) ([]record.Record, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}

	var fixture Fixture

	loadErr := LoadFile(path, codec, &fixture)
	if loadErr != nil {
		return nil, fmt.Errorf("load fixture %s: %w", path, loadErr)
	}

	for i := range fixture.Records {
		if fixture.Records[i].Kind == "" {
			fixture.Records[i].Kind = record.KindExploration
		}
	}

	return fixture.Records, nil
}

// SaveRecords writes records to a fixture file, choosing the codec from its name.
func SaveRecords(path string, records []record.Record) error {
	codec, err := CodecForPath(path)
	if err != nil {
		return err
	}

	saveErr := SaveFile(path, codec, Fixture{Records: records})
	if saveErr != nil {
		return fmt.Errorf("save fixture %s: %w", path, saveErr)
	}

	return nil
}
