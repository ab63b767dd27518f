// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowLimiter: cota por janela móvel (ex: 60 chamadas em 60s) por RunSet
//   - Store: token bucket por credencial usando golang.org/x/time/rate
//   - Client: cliente HTTP da API de status histórico
//   - ChanPool: semáforo simples para limitar RunSets simultâneos
//   - MemoryStatsStore / RedisStatsStore: contadores de chamadas
//   - CSVWriter / ReadIATACodes: entrada e saída em arquivos delimitados
package infra
