package models

// Genre is a movie category with its description
type Genre struct {
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description" dynamodbav:"description"`
}

// Director holds director metadata
type Director struct {
	Name string `json:"name" dynamodbav:"name"`
	Bio  string `json:"bio" dynamodbav:"bio"`
}

// Movie is a read-only catalog entry returned verbatim from the store
type Movie struct {
	MovieID     string   `json:"movie_id" dynamodbav:"movie_id"` // Primary Key
	Title       string   `json:"title" dynamodbav:"title"`
	Description string   `json:"description" dynamodbav:"description"`
	Genre       Genre    `json:"genre" dynamodbav:"genre"`
	Director    Director `json:"director" dynamodbav:"director"`
	Actors      []string `json:"actors" dynamodbav:"actors"`
	ImagePath   string   `json:"image_path" dynamodbav:"image_path"`
	Featured    bool     `json:"featured" dynamodbav:"featured"`
}
