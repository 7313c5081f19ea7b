package utils

//run redis
//docker run -p 6379:6379 -d redis

//run qdrant (only when vector.backend is qdrant)
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//run ollama
//ollama pull llama3.2 && ollama pull nomic-embed-text

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
