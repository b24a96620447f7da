// Package export renders catalog logos as XML documents.
package export

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"LogoSync/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ContentType the documents are served as plain text
const ContentType = "text/plain; charset=utf-8"

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

type sportsDoc struct {
	XMLName xml.Name     `xml:"sports"`
	Sports  []sportGroup `xml:"sport"`
}

type sportGroup struct {
	Name    string       `xml:"name,attr"`
	Leagues []leagueLogo `xml:"league"`
}

type leagueLogo struct {
	Name     string `xml:"name,attr"`
	Category string `xml:"category,attr"`
	LogoURL  string `xml:"logo_url"`
}

type channelsDoc struct {
	XMLName xml.Name      `xml:"tv_channels"`
	Regions []regionGroup `xml:"region"`
}

type regionGroup struct {
	Name     string        `xml:"name,attr"`
	Channels []channelLogo `xml:"channel"`
}

type channelLogo struct {
	Name    string `xml:"name,attr"`
	LogoURL string `xml:"logo_url"`
}

// LeaguesXML groups imaged leagues by sport, sorted by sport then name
func LeaguesXML(leagues []model.Entity) ([]byte, error) {
	doc := sportsDoc{}
	for _, g := range groupImaged(leagues, "") {
		sg := sportGroup{Name: g.name}
		for _, e := range g.entities {
			sg.Leagues = append(sg.Leagues, leagueLogo{Name: e.Name, Category: e.Category, LogoURL: e.ImageURL})
		}
		doc.Sports = append(doc.Sports, sg)
	}
	return render(doc)
}

// ChannelsXML groups imaged channels by region (Global when missing), sorted by region then name
func ChannelsXML(channels []model.Entity) ([]byte, error) {
	doc := channelsDoc{}
	for _, g := range groupImaged(channels, model.DefaultRegion) {
		rg := regionGroup{Name: g.name}
		for _, e := range g.entities {
			rg.Channels = append(rg.Channels, channelLogo{Name: e.Name, LogoURL: e.ImageURL})
		}
		doc.Regions = append(doc.Regions, rg)
	}
	return render(doc)
}

type group struct {
	name     string
	entities []model.Entity
}

// groupImaged drops entities without image and groups the rest; empty groups never appear
func groupImaged(entities []model.Entity, fallbackGroup string) []group {
	imaged := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		if e.ImageURL == "" {
			continue
		}
		if e.Group == "" {
			e.Group = fallbackGroup
		}
		imaged = append(imaged, e)
	}

	c := collate.New(language.Und)
	compare := func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	}
	sort.SliceStable(imaged, func(i, j int) bool {
		if imaged[i].Group != imaged[j].Group {
			return compare(imaged[i].Group, imaged[j].Group) < 0
		}
		return compare(imaged[i].Name, imaged[j].Name) < 0
	})

	var groups []group
	for _, e := range imaged {
		if n := len(groups); n == 0 || groups[n-1].name != e.Group {
			groups = append(groups, group{name: e.Group})
		}
		groups[len(groups)-1].entities = append(groups[len(groups)-1].entities, e)
	}
	return groups
}

func render(doc interface{}) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal logos xml: %w", err)
	}
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	return append(out, body...), nil
}
