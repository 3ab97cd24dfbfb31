package embedding

// Shard is a first-letter range of the vocabulary stored in its own database file.
type Shard struct {
	Name  string
	First byte
	Last  byte
}

// Shards lists the dataset partitions in alphabetical order.
var Shards = []Shard{
	{Name: "a-c", First: 'a', Last: 'c'},
	{Name: "d-h", First: 'd', Last: 'h'},
	{Name: "i-o", First: 'i', Last: 'o'},
	{Name: "p-r", First: 'p', Last: 'r'},
	{Name: "s-z", First: 's', Last: 'z'},
}

// FileName is the name of the shard's database within the dataset.
func (s Shard) FileName() string {
	return "word2vec_" + s.Name + ".db"
}

// Contains reports whether word belongs to this shard.
func (s Shard) Contains(word string) bool {
	return word != "" && word[0] >= s.First && word[0] <= s.Last
}

// ShardFor returns the shard holding word. Words that do not start with a
// lowercase ASCII letter belong to no shard.
func ShardFor(word string) (Shard, bool) {
	for _, s := range Shards {
		if s.Contains(word) {
			return s, true
		}
	}
	return Shard{}, false
}
