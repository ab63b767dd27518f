// Package flightstats liga as camadas do cliente de status histórico de voos.
//
// Visão geral (camadas):
//
//   - domain: registros da API, RunSet, Result e contratos (sem net/http)
//   - application: casos de uso (fetch por RunSet, transformação, orquestração)
//   - infra: implementações concretas (janela móvel, token bucket, cliente HTTP, CSV)
//   - flightstats (este pacote): fábrica de clientes por RunSet (limiters + transport)
//
// Fluxo de um RunSet:
//
//  1. O orquestrador adquire uma vaga no pool
//  2. A fábrica cria o cliente do RunSet com seu próprio WindowLimiter
//  3. Cada requisição espera no limiter do RunSet (e no da credencial, se houver)
//  4. Fetch -> Transform -> escrita dos CSVs
//
// Variáveis de ambiente do binário (cmd/flightstats) controlam o comportamento,
// como FLIGHTSTATS_WORKERS, FLIGHTSTATS_RATE_MAX e FLIGHTSTATS_GLOBAL_RPS.
package flightstats
