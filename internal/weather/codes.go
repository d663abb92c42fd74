package weather

import "sort"

// CodeInfo describes a WMO weather interpretation code.
type CodeInfo struct {
	Code        int       `json:"code"`
	Emoji       string    `json:"emoji"`
	Description string    `json:"description"`
	Condition   Condition `json:"condition"`
}

// Unknown is returned for codes outside the table.
var Unknown = CodeInfo{Code: -1, Emoji: "🌡️", Description: "Unknown", Condition: ConditionUnknown}

var codeTable = map[int]CodeInfo{
	0:  {0, "☀️", "Clear sky", ConditionClear},
	1:  {1, "🌤️", "Mainly clear", ConditionClear},
	2:  {2, "⛅", "Partly cloudy", ConditionCloudy},
	3:  {3, "☁️", "Overcast", ConditionCloudy},
	45: {45, "🌫️", "Fog", ConditionFog},
	48: {48, "🌫️", "Depositing rime fog", ConditionFog},
	51: {51, "🌧️", "Light drizzle", ConditionDrizzle},
	53: {53, "🌧️", "Moderate drizzle", ConditionDrizzle},
	55: {55, "🌧️", "Dense drizzle", ConditionDrizzle},
	56: {56, "🌧️", "Light freezing drizzle", ConditionDrizzle},
	57: {57, "🌧️", "Dense freezing drizzle", ConditionDrizzle},
	61: {61, "🌧️", "Slight rain", ConditionRain},
	63: {63, "🌧️", "Moderate rain", ConditionRain},
	65: {65, "🌧️", "Heavy rain", ConditionRain},
	66: {66, "🌧️", "Light freezing rain", ConditionRain},
	67: {67, "🌧️", "Heavy freezing rain", ConditionRain},
	71: {71, "❄️", "Slight snow", ConditionSnow},
	73: {73, "❄️", "Moderate snow", ConditionSnow},
	75: {75, "❄️", "Heavy snow", ConditionSnow},
	77: {77, "❄️", "Snow grains", ConditionSnow},
	80: {80, "🌦️", "Slight rain showers", ConditionRain},
	81: {81, "🌦️", "Moderate rain showers", ConditionRain},
	82: {82, "🌦️", "Violent rain showers", ConditionRain},
	85: {85, "🌨️", "Slight snow showers", ConditionSnow},
	86: {86, "🌨️", "Heavy snow showers", ConditionSnow},
	95: {95, "⛈️", "Thunderstorm", ConditionStorm},
	96: {96, "⛈️", "Thunderstorm with slight hail", ConditionStorm},
	99: {99, "⛈️", "Thunderstorm with heavy hail", ConditionStorm},
}

// Describe looks up a WMO code.
func Describe(code int) CodeInfo {
	if info, ok := codeTable[code]; ok {
		return info
	}
	u := Unknown
	u.Code = code
	return u
}

// Codes returns the whole table ordered by code.
func Codes() []CodeInfo {
	out := make([]CodeInfo, 0, len(codeTable))
	for _, info := range codeTable {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
