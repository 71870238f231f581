package recommend

import "github.com/Varda003/EmoTune/internal/models"

// fallbackTracks is served when the catalog is unavailable. Entries carry no catalog id or preview.
var fallbackTracks = map[models.Emotion][]models.Track{
	models.Happy: {
		{Title: "Happy", Artist: "Pharrell Williams", Album: "G I R L"},
		{Title: "Uptown Funk", Artist: "Mark Ronson, Bruno Mars", Album: "Uptown Special"},
		{Title: "Can't Stop the Feeling!", Artist: "Justin Timberlake", Album: "Trolls"},
		{Title: "Good as Hell", Artist: "Lizzo", Album: "Cuz I Love You"},
		{Title: "Walking on Sunshine", Artist: "Katrina and the Waves", Album: "Walking on Sunshine"},
		{Title: "Shake It Off", Artist: "Taylor Swift", Album: "1989"},
		{Title: "Dancing Queen", Artist: "ABBA", Album: "Arrival"},
		{Title: "Levitating", Artist: "Dua Lipa", Album: "Future Nostalgia"},
	},
	models.Sad: {
		{Title: "Someone Like You", Artist: "Adele", Album: "21"},
		{Title: "Fix You", Artist: "Coldplay", Album: "X&Y"},
		{Title: "Skinny Love", Artist: "Bon Iver", Album: "For Emma, Forever Ago"},
		{Title: "The Night We Met", Artist: "Lord Huron", Album: "Strange Trails"},
		{Title: "Hurt", Artist: "Johnny Cash", Album: "American IV: The Man Comes Around"},
		{Title: "Say Something", Artist: "A Great Big World, Christina Aguilera", Album: "Is There Anybody Out There?"},
		{Title: "Liability", Artist: "Lorde", Album: "Melodrama"},
		{Title: "Mad World", Artist: "Gary Jules", Album: "Trading Snakeoil for Wolftickets"},
	},
	models.Angry: {
		{Title: "Killing in the Name", Artist: "Rage Against the Machine", Album: "Rage Against the Machine"},
		{Title: "Break Stuff", Artist: "Limp Bizkit", Album: "Significant Other"},
		{Title: "Bodies", Artist: "Drowning Pool", Album: "Sinner"},
		{Title: "Last Resort", Artist: "Papa Roach", Album: "Infest"},
		{Title: "Down with the Sickness", Artist: "Disturbed", Album: "The Sickness"},
		{Title: "Given Up", Artist: "Linkin Park", Album: "Minutes to Midnight"},
		{Title: "Master of Puppets", Artist: "Metallica", Album: "Master of Puppets"},
		{Title: "Chop Suey!", Artist: "System of a Down", Album: "Toxicity"},
	},
	models.Neutral: {
		{Title: "Weightless", Artist: "Marconi Union", Album: "Weightless"},
		{Title: "Take Five", Artist: "The Dave Brubeck Quartet", Album: "Time Out"},
		{Title: "Sunset Lover", Artist: "Petit Biscuit", Album: "Presence"},
		{Title: "Intro", Artist: "The xx", Album: "xx"},
		{Title: "Teardrop", Artist: "Massive Attack", Album: "Mezzanine"},
		{Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue"},
		{Title: "Holocene", Artist: "Bon Iver", Album: "Bon Iver"},
		{Title: "Breathe", Artist: "Télépopmusik", Album: "Genetic World"},
	},
	models.Surprised: {
		{Title: "Titanium", Artist: "David Guetta, Sia", Album: "Nothing but the Beat"},
		{Title: "Wake Me Up", Artist: "Avicii", Album: "True"},
		{Title: "Animals", Artist: "Martin Garrix", Album: "Animals"},
		{Title: "Lean On", Artist: "Major Lazer, DJ Snake, MØ", Album: "Peace Is the Mission"},
		{Title: "One More Time", Artist: "Daft Punk", Album: "Discovery"},
		{Title: "Blinding Lights", Artist: "The Weeknd", Album: "After Hours"},
		{Title: "Midnight City", Artist: "M83", Album: "Hurry Up, We're Dreaming"},
		{Title: "Clarity", Artist: "Zedd, Foxes", Album: "Clarity"},
	},
	models.Fearful: {
		{Title: "Clair de Lune", Artist: "Claude Debussy", Album: "Suite bergamasque"},
		{Title: "Gymnopédie No. 1", Artist: "Erik Satie", Album: "Gymnopédies"},
		{Title: "Nuvole Bianche", Artist: "Ludovico Einaudi", Album: "Una Mattina"},
		{Title: "Spiegel im Spiegel", Artist: "Arvo Pärt", Album: "Alina"},
		{Title: "On the Nature of Daylight", Artist: "Max Richter", Album: "The Blue Notebooks"},
		{Title: "Experience", Artist: "Ludovico Einaudi", Album: "In a Time Lapse"},
		{Title: "Comptine d'un autre été", Artist: "Yann Tiersen", Album: "Amélie"},
		{Title: "Adagio for Strings", Artist: "Samuel Barber", Album: "Adagio for Strings"},
	},
	models.Disgusted: {
		{Title: "Basket Case", Artist: "Green Day", Album: "Dookie"},
		{Title: "Smells Like Teen Spirit", Artist: "Nirvana", Album: "Nevermind"},
		{Title: "Seven Nation Army", Artist: "The White Stripes", Album: "Elephant"},
		{Title: "Mr. Brightside", Artist: "The Killers", Album: "Hot Fuss"},
		{Title: "Song 2", Artist: "Blur", Album: "Blur"},
		{Title: "Creep", Artist: "Radiohead", Album: "Pablo Honey"},
		{Title: "Do I Wanna Know?", Artist: "Arctic Monkeys", Album: "AM"},
		{Title: "Bulls on Parade", Artist: "Rage Against the Machine", Album: "Evil Empire"},
	},
}

// Fallback returns limit tracks for emotion from the built-in table, cycling through it when limit exceeds
// its size. The result is the same for the same arguments.
func Fallback(emotion models.Emotion, limit int) []models.Track {
	table, ok := fallbackTracks[emotion]
	if !ok {
		table = fallbackTracks[models.Neutral]
	}
	if limit <= 0 {
		return []models.Track{}
	}

	tracks := make([]models.Track, limit)
	for i := range tracks {
		tracks[i] = table[i%len(table)]
	}
	return tracks
}
