package timeline

// цвет метки релиза, если у канала нет своего
const DefaultReleaseColor = "#f0ad4e"

var ChannelPalette = []string{"#ca6702", "#0077b6", "#588157", "#9b2226", "#6a4c93", "#3a86ff"}

// ChannelColors раздаёт палитру по порядку каналов, по кругу
func ChannelColors(channels []string) map[string]string {
	res := make(map[string]string, len(channels))
	for i, ch := range channels {
		res[ch] = ChannelPalette[i%len(ChannelPalette)]
	}
	return res
}
