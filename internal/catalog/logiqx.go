package catalog

import (
	"encoding/xml"
	"fmt"
)

// DATFile is a parsed Logiqx datafile.
type DATFile struct {
	Name        string
	Description string
	Version     string
	Games       []DATGame
}

// DATGame is one game element with its rom entries.
type DATGame struct {
	Name string
	ROMs []DATROM
}

// DATROM is one rom element inside a game.
type DATROM struct {
	Name      string
	SizeBytes int64
	CRC       string
	MD5       string
	SHA1      string
}

type logiqxDatafile struct {
	XMLName xml.Name     `xml:"datafile"`
	Header  logiqxHeader `xml:"header"`
	Games   []logiqxGame `xml:"game"`
}

type logiqxHeader struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Version     string `xml:"version"`
}

type logiqxGame struct {
	Name string      `xml:"name,attr"`
	ROMs []logiqxROM `xml:"rom"`
}

type logiqxROM struct {
	Name string `xml:"name,attr"`
	Size int64  `xml:"size,attr"`
	CRC  string `xml:"crc,attr"`
	MD5  string `xml:"md5,attr"`
	SHA1 string `xml:"sha1,attr"`
}

// ParseDAT decodes a Logiqx XML datafile.
func ParseDAT(data []byte) (*DATFile, error) {
	var doc logiqxDatafile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse datafile: %w", err)
	}
	if len(doc.Games) == 0 {
		return nil, fmt.Errorf("datafile %q contains no games", doc.Header.Name)
	}

	dat := &DATFile{
		Name:        doc.Header.Name,
		Description: doc.Header.Description,
		Version:     doc.Header.Version,
		Games:       make([]DATGame, 0, len(doc.Games)),
	}
	for _, game := range doc.Games {
		parsed := DATGame{Name: game.Name, ROMs: make([]DATROM, 0, len(game.ROMs))}
		for _, rom := range game.ROMs {
			if rom.SHA1 == "" {
				continue
			}
			parsed.ROMs = append(parsed.ROMs, DATROM{
				Name:      rom.Name,
				SizeBytes: rom.Size,
				CRC:       rom.CRC,
				MD5:       rom.MD5,
				SHA1:      rom.SHA1,
			})
		}
		dat.Games = append(dat.Games, parsed)
	}
	return dat, nil
}
