package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCrop indica um identificador de cultura fora do conjunto suportado
var ErrUnknownCrop = errors.New("unknown crop")

// Crop identificador de cultura
type Crop string

const (
	CropRice    Crop = "rice"
	CropWheat   Crop = "wheat"
	CropTomato  Crop = "tomato"
	CropCotton  Crop = "cotton"
	CropMaize   Crop = "maize"
	CropSoybean Crop = "soybean"

	// DefaultCrop cultura usada quando nenhuma foi selecionada
	DefaultCrop = CropRice
)

// Crops lista as culturas suportadas na ordem de exibição
var Crops = []Crop{CropRice, CropWheat, CropTomato, CropCotton, CropMaize, CropSoybean}

// Range intervalo aceitável de um parâmetro
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains verifica se o valor está dentro do intervalo (inclusivo)
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// CropProfile limites agronômicos de uma cultura
type CropProfile struct {
	ID          Crop   `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Moisture    Range  `json:"moisture"`
	PH          Range  `json:"ph"`
	N           Range  `json:"n"`
	P           Range  `json:"p"`
	K           Range  `json:"k"`
	Temperature Range  `json:"temp"`
	Humidity    Range  `json:"humidity"`
}

// ParseCrop converte uma string em Crop, retornando ErrUnknownCrop se inválida
func ParseCrop(s string) (Crop, error) {
	c := Crop(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CropRice, CropWheat, CropTomato, CropCotton, CropMaize, CropSoybean:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCrop, s)
}

// Profile retorna o perfil da cultura
func (c Crop) Profile() (CropProfile, error) {
	switch c {
	case CropRice:
		return CropProfile{
			ID: CropRice, Name: "Rice", Icon: "🌾",
			Moisture:    Range{65, 85},
			PH:          Range{5.5, 7.0},
			N:           Range{45, 80},
			P:           Range{30, 60},
			K:           Range{40, 70},
			Temperature: Range{20, 38},
			Humidity:    Range{65, 90},
		}, nil
	case CropWheat:
		return CropProfile{
			ID: CropWheat, Name: "Wheat", Icon: "🌿",
			Moisture:    Range{45, 65},
			PH:          Range{6.0, 7.5},
			N:           Range{40, 75},
			P:           Range{25, 55},
			K:           Range{35, 65},
			Temperature: Range{12, 28},
			Humidity:    Range{40, 65},
		}, nil
	case CropTomato:
		return CropProfile{
			ID: CropTomato, Name: "Tomato", Icon: "🍅",
			Moisture:    Range{55, 75},
			PH:          Range{5.8, 7.0},
			N:           Range{50, 80},
			P:           Range{35, 65},
			K:           Range{45, 75},
			Temperature: Range{18, 32},
			Humidity:    Range{50, 75},
		}, nil
	case CropCotton:
		return CropProfile{
			ID: CropCotton, Name: "Cotton", Icon: "☁️",
			Moisture:    Range{40, 65},
			PH:          Range{6.0, 8.0},
			N:           Range{35, 70},
			P:           Range{25, 50},
			K:           Range{40, 70},
			Temperature: Range{20, 38},
			Humidity:    Range{40, 70},
		}, nil
	case CropMaize:
		return CropProfile{
			ID: CropMaize, Name: "Maize", Icon: "🌽",
			Moisture:    Range{50, 75},
			PH:          Range{5.8, 7.2},
			N:           Range{50, 85},
			P:           Range{30, 60},
			K:           Range{35, 65},
			Temperature: Range{18, 35},
			Humidity:    Range{45, 70},
		}, nil
	case CropSoybean:
		return CropProfile{
			ID: CropSoybean, Name: "Soybean", Icon: "🫘",
			Moisture:    Range{45, 70},
			PH:          Range{6.0, 7.2},
			N:           Range{20, 50},
			P:           Range{30, 60},
			K:           Range{40, 70},
			Temperature: Range{15, 32},
			Humidity:    Range{50, 75},
		}, nil
	}
	return CropProfile{}, fmt.Errorf("%w: %q", ErrUnknownCrop, string(c))
}

// ProfileOrDefault resolve o perfil pelo identificador, caindo para arroz
// quando o identificador é desconhecido
func ProfileOrDefault(key string) CropProfile {
	crop, err := ParseCrop(key)
	if err != nil {
		crop = DefaultCrop
	}
	p, _ := crop.Profile()
	return p
}

// AllProfiles retorna os perfis de todas as culturas
func AllProfiles() []CropProfile {
	profiles := make([]CropProfile, 0, len(Crops))
	for _, c := range Crops {
		p, _ := c.Profile()
		profiles = append(profiles, p)
	}
	return profiles
}
