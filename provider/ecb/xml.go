package ecb

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robotomize/fxcache/snapshot"
	"golang.org/x/net/html/charset"
)

const xmlCubeElement = "Cube"

// decodeXML returns the decoding function. decodeXML parses xml in streaming mode and hands out the
// rates of every <Cube time="..."> node. Entries with a currency code that is not three uppercase
// letters are skipped
func decodeXML() decodeFunc {
	return func(b []byte, iterFunc func(day snapshot.Snapshot) error) error {
		if iterFunc == nil {
			return errMissingIterFunc
		}

		decoder := xml.NewDecoder(bytes.NewReader(b))
		decoder.CharsetReader = charset.NewReaderLabel
	TokenLoop:
		for {
			token, err := decoder.Token()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break TokenLoop
				}

				var syntaxErr *xml.SyntaxError
				if errors.As(err, &syntaxErr) {
					return fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
				}

				return fmt.Errorf("decode token: %w", err)
			}

			tp, ok := token.(xml.StartElement)
			if !ok || !isXMLCubeElement(tp.Name.Local) || !hasAttr(tp, "time") {
				continue TokenLoop
			}

			// Decode a piece of the tree into an XMLNode element, which represents the rates for the day
			var node XMLNode
			if err := decoder.DecodeElement(&node, &tp); err != nil {
				var syntaxErr *xml.SyntaxError
				switch {
				case errors.As(err, &syntaxErr):
					return fmt.Errorf("%w: %v", errDecodeToken, syntaxErr.Error())
				case errors.Is(err, errAttributeNotValid):
					return err
				default:
					return fmt.Errorf("decode element: %w", err)
				}
			}

			day := snapshot.Snapshot{
				Date:  node.Time.Date(),
				Rates: make(map[string]float64, len(node.Rates)),
			}

			for _, r := range node.Rates {
				code := strings.TrimSpace(r.Currency)
				if !snapshot.IsCode(code) || r.Rate == 0 {
					continue
				}

				day.Rates[code] = r.Rate.Float64()
			}

			if err := iterFunc(day); err != nil {
				return fmt.Errorf("handle func: %w", err)
			}
		}

		return nil
	}
}

func isXMLCubeElement(name string) bool {
	return name == xmlCubeElement
}

func hasAttr(el xml.StartElement, name string) bool {
	for _, attr := range el.Attr {
		if attr.Name.Local == name {
			return true
		}
	}

	return false
}

var _ xml.UnmarshalerAttr = (*XMLAttrTime)(nil)

type XMLAttrTime snapshot.Date

func (x XMLAttrTime) Date() snapshot.Date {
	return snapshot.Date(x)
}

func (x *XMLAttrTime) UnmarshalXMLAttr(attr xml.Attr) error {
	d, err := snapshot.ParseDate(strings.TrimSpace(attr.Value))
	if err != nil {
		return fmt.Errorf("%w: %v", errAttributeNotValid, err)
	}

	*x = XMLAttrTime(d)

	return nil
}

var _ xml.UnmarshalerAttr = (*XMLRateAttr)(nil)

type XMLRateAttr float64

func (i XMLRateAttr) Float64() float64 {
	return float64(i)
}

func (i *XMLRateAttr) UnmarshalXMLAttr(attr xml.Attr) error {
	rate, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
	if err != nil {
		return fmt.Errorf("%w: %v", errAttributeNotValid, err)
	}

	if rate <= 0 {
		return errAttributeNotValid
	}

	*i = XMLRateAttr(rate)

	return nil
}

type XMLNode struct {
	Time  XMLAttrTime `xml:"time,attr"`
	Rates []struct {
		Currency string      `xml:"currency,attr"`
		Rate     XMLRateAttr `xml:"rate,attr"`
	} `xml:"Cube"`
}
